package service

// importacion_service.go
// Turns a Shopify order into a guía. Idempotent on the tracking number
// ("SH-{order_number}"): re-importing an order reports the guide that already
// exists instead of duplicating it. Orders are fetched through the request
// cache, so a double-click on the import button produces one API call and a
// 429 from Shopify gets retried with backoff.

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pirela/sistema-guia/internal/cache"
	"github.com/pirela/sistema-guia/internal/dto"
	"github.com/pirela/sistema-guia/internal/infra"
	"github.com/pirela/sistema-guia/internal/model"
	"github.com/pirela/sistema-guia/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrdenYaImportadaError carries the existing guide so the handler can answer
// 409 with enough context for the operator to jump to it.
type OrdenYaImportadaError struct {
	GuiaID     string
	NumeroGuia string
}

func (e *OrdenYaImportadaError) Error() string {
	return fmt.Sprintf("la orden ya fue importada como guía %s", e.NumeroGuia)
}

func (e *OrdenYaImportadaError) Is(target error) bool { return target == ErrOrdenYaImportada }

// OrdenFetcher is what the import flow needs from the Shopify client.
type OrdenFetcher interface {
	ObtenerOrden(ctx context.Context, orderNumber string) (*infra.ShopifyOrder, error)
}

type ImportacionService interface {
	Importar(ctx context.Context, actor *model.Usuario, req dto.ImportarOrdenRequest) (*dto.GuiaResponse, error)
}

type importacionService struct {
	shopify   OrdenFetcher
	guias     repository.GuiaRepository
	productos repository.ProductoRepository
	usuarios  repository.UsuarioRepository
	historial repository.HistorialRepository
	cache     *cache.Cache
}

func NewImportacionService(
	shopify OrdenFetcher,
	guias repository.GuiaRepository,
	productos repository.ProductoRepository,
	usuarios repository.UsuarioRepository,
	historial repository.HistorialRepository,
	c *cache.Cache,
) ImportacionService {
	return &importacionService{
		shopify:   shopify,
		guias:     guias,
		productos: productos,
		usuarios:  usuarios,
		historial: historial,
		cache:     c,
	}
}

const ttlOrdenShopify = 30 * time.Second

func (s *importacionService) Importar(ctx context.Context, actor *model.Usuario, req dto.ImportarOrdenRequest) (*dto.GuiaResponse, error) {
	clean := strings.TrimSpace(strings.TrimPrefix(req.OrderNumber, "#"))

	orden, err := cache.Fetch(ctx, s.cache, "shopify-orden-"+clean, ttlOrdenShopify,
		func(ctx context.Context) (*infra.ShopifyOrder, error) {
			return s.shopify.ObtenerOrden(ctx, clean)
		})
	if err != nil {
		return nil, err
	}

	numero := fmt.Sprintf("SH-%d", orden.OrderNumber)
	if existente, err := s.guias.FindByNumero(ctx, numero); err == nil {
		return nil, &OrdenYaImportadaError{
			GuiaID:     existente.ID.String(),
			NumeroGuia: existente.NumeroGuia,
		}
	}

	motorizado, err := s.resolverMotorizado(ctx, req.MotorizadoID)
	if err != nil {
		return nil, err
	}

	nombre, telefono, direccion, referencia := datosEntrega(orden)
	monto, err := decimal.NewFromString(orden.CurrentTotalPrice)
	if err != nil {
		monto = decimal.Zero
	}

	ahora := time.Now().UTC()
	var guia model.Guia

	txErr := runTx(ctx, s.guias.DB(), func(tx *gorm.DB) error {
		guia = model.Guia{
			NumeroGuia:         numero,
			NombreCliente:      nombre,
			TelefonoCliente:    telefono,
			Direccion:          direccion,
			MontoRecaudar:      monto,
			Estado:             model.EstadoAsignada,
			MotorizadoAsignado: motorizado.ID,
			CreadoPor:          actor.ID,
			FechaAsignacion:    ahora,
		}
		if referencia != "" {
			guia.Referencia = &referencia
		}
		if obs := strings.TrimSpace(orden.Note); obs != "" {
			guia.Observacion = &obs
		}
		if err := s.guias.CreateTx(tx, &guia); err != nil {
			return err
		}

		items := make([]model.GuiaProducto, 0, len(orden.LineItems))
		for _, li := range orden.LineItems {
			producto, err := s.resolverProducto(tx, li)
			if err != nil {
				return err
			}
			precio, err := decimal.NewFromString(li.Price)
			if err != nil {
				precio = producto.Precio
			}
			items = append(items, model.GuiaProducto{
				GuiaID:         guia.ID,
				ProductoID:     producto.ID,
				Cantidad:       li.Quantity,
				PrecioUnitario: precio,
			})
		}
		if err := s.guias.CreateProductosTx(tx, items); err != nil {
			return err
		}

		entrada := &model.HistorialEstado{
			GuiaID:      guia.ID,
			Tipo:        model.HistorialCambioEstado,
			EstadoNuevo: model.EstadoAsignada,
			UsuarioID:   &actor.ID,
			FechaCambio: ahora,
		}
		if c := strings.TrimSpace(req.Comentario); c != "" {
			entrada.Comentario = &c
		}
		return s.historial.CreateTx(tx, entrada)
	})
	if txErr != nil {
		return nil, txErr
	}

	s.cache.InvalidatePrefix("guias")
	s.cache.InvalidatePrefix("reportes")
	log.Info().Str("numero", numero).Int64("orden", orden.OrderNumber).Msg("orden de Shopify importada")

	resp := guiaToResponse(&guia)
	resp.MotorizadoNombre = motorizado.Nombre
	return &resp, nil
}

func (s *importacionService) resolverMotorizado(ctx context.Context, motorizadoID string) (*model.Usuario, error) {
	if motorizadoID == "" {
		m, err := s.usuarios.FirstMotorizadoActivo(ctx)
		if err != nil {
			return nil, ErrMotorizadoInvalido
		}
		return m, nil
	}
	id, err := uuid.Parse(motorizadoID)
	if err != nil {
		return nil, ErrMotorizadoInvalido
	}
	m, err := s.usuarios.FindByID(ctx, id)
	if err != nil || m.Rol != model.RolMotorizado || !m.Activo || m.Eliminado {
		return nil, ErrMotorizadoInvalido
	}
	return m, nil
}

// resolverProducto matches a line item against the catalog: first by SKU
// (synthesizing "SHOPIFY-{id}" when the item carries none), then by
// normalized name, creating the product as a last resort.
func (s *importacionService) resolverProducto(tx *gorm.DB, li infra.ShopifyLineItem) (*model.Producto, error) {
	sku := strings.TrimSpace(li.SKU)
	if sku == "" {
		sku = fmt.Sprintf("SHOPIFY-%d", li.ID)
	}

	if p, err := s.productos.FindBySKUTx(tx, sku); err == nil {
		return p, nil
	}

	normalizado := NormalizarNombre(li.Title)
	if p, err := s.productos.FindByNombreNormalizadoTx(tx, normalizado); err == nil {
		return p, nil
	}

	precio, err := decimal.NewFromString(li.Price)
	if err != nil {
		precio = decimal.Zero
	}
	nuevo := &model.Producto{
		CodigoSKU:         &sku,
		Nombre:            li.Title,
		NombreNormalizado: normalizado,
		Precio:            precio,
		Activo:            true,
	}
	if err := s.productos.CreateTx(tx, nuevo); err != nil {
		return nil, fmt.Errorf("crear producto %q: %w", li.Title, err)
	}
	log.Info().Str("sku", sku).Str("nombre", li.Title).Msg("producto creado desde orden de Shopify")
	return nuevo, nil
}

// datosEntrega composes the customer block from the checkout note attributes,
// falling back to the shipping address and customer record when the custom
// form fields are absent.
func datosEntrega(o *infra.ShopifyOrder) (nombre, telefono, direccion, referencia string) {
	nombre = o.NoteAttribute("Nombre y Apellido")
	if nombre == "" && o.Customer != nil {
		nombre = strings.TrimSpace(o.Customer.FirstName + " " + o.Customer.LastName)
	}
	if nombre == "" {
		nombre = "Cliente Shopify"
	}

	telefono = o.NoteAttribute("Teléfono de Contacto (Celular)")
	if telefono == "" && o.Customer != nil {
		telefono = o.Customer.Phone
	}

	partes := make([]string, 0, 4)
	for _, attr := range []string{"Departamento", "Ciudad", "Dirección completa"} {
		if v := strings.TrimSpace(o.NoteAttribute(attr)); v != "" {
			partes = append(partes, v)
		}
	}
	if len(partes) == 0 && o.ShippingAddress != nil {
		for _, v := range []string{o.ShippingAddress.Province, o.ShippingAddress.City, o.ShippingAddress.Address1, o.ShippingAddress.Address2} {
			if v = strings.TrimSpace(v); v != "" {
				partes = append(partes, v)
			}
		}
	}
	direccion = strings.Join(partes, ", ")
	if direccion == "" {
		direccion = "Dirección pendiente de confirmar"
	}

	refPartes := make([]string, 0, 2)
	for _, attr := range []string{"Bario", "complemento"} {
		if v := strings.TrimSpace(o.NoteAttribute(attr)); v != "" {
			refPartes = append(refPartes, v)
		}
	}
	referencia = strings.Join(refPartes, " - ")
	return nombre, telefono, direccion, referencia
}
