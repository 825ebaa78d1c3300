package dto

type CrearUsuarioRequest struct {
	Username string  `json:"username" validate:"required,min=3"`
	Password string  `json:"password" validate:"required,min=6"`
	Nombre   string  `json:"nombre" validate:"required"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Rol      string  `json:"rol" validate:"required,oneof=administrador motorizado"`
}

type ActualizarUsuarioRequest struct {
	Nombre   *string `json:"nombre"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Password *string `json:"password" validate:"omitempty,min=6"`
	Rol      *string `json:"rol" validate:"omitempty,oneof=administrador motorizado"`
	Activo   *bool   `json:"activo"`
}

type UsuarioResponse struct {
	ID       string  `json:"id"`
	Username string  `json:"username"`
	Nombre   string  `json:"nombre"`
	Email    *string `json:"email,omitempty"`
	Rol      string  `json:"rol"`
	Activo   bool    `json:"activo"`
}
