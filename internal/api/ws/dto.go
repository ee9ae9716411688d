package ws

// ClientMsg representa uma mensagem recebida do cliente WebSocket
// Type: subscribe | unsubscribe | ping
// EventID: obrigatório para subscribe/unsubscribe
type ClientMsg struct {
	Type    string `json:"type"`
	EventID string `json:"eventId"`
}

// RowsUpdate é a atualização de odds repassada aos clientes inscritos.
// Payload carrega as linhas canônicas recém-gravadas do evento.
type RowsUpdate struct {
	EventID string      `json:"eventId"`
	Payload interface{} `json:"payload"`
}
