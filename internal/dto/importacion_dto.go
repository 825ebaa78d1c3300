package dto

type ImportarOrdenRequest struct {
	OrderNumber  string `json:"order_number" validate:"required"`
	MotorizadoID string `json:"motorizado_id" validate:"omitempty,uuid"`
	Comentario   string `json:"comentario"`
}

type ImportarOrdenResponse struct {
	Guia    GuiaResponse `json:"guia"`
	Mensaje string       `json:"mensaje"`
}
