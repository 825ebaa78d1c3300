package handler

import (
	"net/http"
	"reflect"

	"github.com/pirela/sistema-guia/internal/apierror"
	"github.com/pirela/sistema-guia/internal/middleware"
	"github.com/pirela/sistema-guia/internal/model"
	"github.com/pirela/sistema-guia/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails —
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("JSON invalido: "+err.Error()))
		return false
	}
	if err := validate.Struct(req); err != nil {
		fields := make(map[string]string)
		for _, fe := range err.(validator.ValidationErrors) {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// resolverActor loads the authenticated user behind the JWT. The workflow
// re-checks Activo/Eliminado against the database, so a token issued before a
// deactivation stops working immediately.
func resolverActor(c *gin.Context, usuarios repository.UsuarioRepository) (*model.Usuario, bool) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, apierror.New("Autenticacion requerida"))
		return nil, false
	}
	uid, err := uuid.Parse(claims.UserID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, apierror.New("Token mal formado"))
		return nil, false
	}
	actor, err := usuarios.FindByID(c.Request.Context(), uid)
	if err != nil || !actor.Activo || actor.Eliminado {
		c.JSON(http.StatusUnauthorized, apierror.New("Usuario no encontrado o inactivo"))
		return nil, false
	}
	return actor, true
}

// parseIDParam parses the :id path parameter, answering 400 on garbage.
func parseIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return uuid.Nil, false
	}
	return id, true
}
