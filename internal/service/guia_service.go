package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pirela/sistema-guia/internal/cache"
	"github.com/pirela/sistema-guia/internal/dto"
	"github.com/pirela/sistema-guia/internal/model"
	"github.com/pirela/sistema-guia/internal/repository"
	"github.com/pirela/sistema-guia/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Freshness windows: the detail view re-reads often while an admin works a
// guide, so it gets a shorter TTL than the list/report reads.
const (
	ttlDetalle = 10 * time.Second
	ttlListas  = 30 * time.Second
)

// GuiaService governs the guide lifecycle: creation, the status workflow
// with its role-gated transition table, reassignment, and the cached read
// paths every view consumes.
type GuiaService interface {
	Crear(ctx context.Context, actor *model.Usuario, req dto.CrearGuiaRequest) (*dto.GuiaResponse, error)
	Listar(ctx context.Context, actor *model.Usuario, filter dto.GuiaFilter) (*dto.GuiaListResponse, error)
	Detalle(ctx context.Context, actor *model.Usuario, id uuid.UUID) (*dto.GuiaDetalleResponse, error)
	CambiarEstado(ctx context.Context, actor *model.Usuario, id uuid.UUID, nuevoEstado, comentario string) (*dto.GuiaResponse, error)
	ReasignarMotorizado(ctx context.Context, actor *model.Usuario, id uuid.UUID, motorizadoID uuid.UUID) (*dto.GuiaResponse, error)
	Eliminar(ctx context.Context, id uuid.UUID) error
	ListarAsignadas(ctx context.Context) ([]model.Guia, error)
}

type guiaService struct {
	repo       repository.GuiaRepository
	historial  repository.HistorialRepository
	novedades  repository.NovedadRepository
	usuarios   repository.UsuarioRepository
	productos  repository.ProductoRepository
	cache      *cache.Cache
	dispatcher *worker.Dispatcher
}

func NewGuiaService(
	repo repository.GuiaRepository,
	historial repository.HistorialRepository,
	novedades repository.NovedadRepository,
	usuarios repository.UsuarioRepository,
	productos repository.ProductoRepository,
	c *cache.Cache,
	dispatcher *worker.Dispatcher,
) GuiaService {
	return &guiaService{
		repo:       repo,
		historial:  historial,
		novedades:  novedades,
		usuarios:   usuarios,
		productos:  productos,
		cache:      c,
		dispatcher: dispatcher,
	}
}

// runTx executes fn inside a GORM transaction when db is available, or calls
// fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// ── Claves de caché ──────────────────────────────────────────────────────────

func claveGuia(id uuid.UUID) string          { return "guia-" + id.String() }
func claveGuiaProductos(id uuid.UUID) string { return "guia-productos-" + id.String() }
func claveGuiaHistorial(id uuid.UUID) string { return "guia-historial-" + id.String() }
func claveGuiaNovedades(id uuid.UUID) string { return "guia-novedades-" + id.String() }

func (s *guiaService) invalidarGuia(id uuid.UUID) {
	s.cache.Invalidate(
		claveGuia(id),
		claveGuiaProductos(id),
		claveGuiaHistorial(id),
		claveGuiaNovedades(id),
	)
	s.cache.InvalidatePrefix("guias")
	s.cache.InvalidatePrefix("reportes")
}

// ── CambiarEstado ────────────────────────────────────────────────────────────
// The workflow operation. Preconditions are checked before any write; the
// guide update (estado CAS + fecha_entrega), the historial append and the
// linked novedad all commit in one transaction, so a lost race or a failed
// append leaves nothing behind.

func (s *guiaService) CambiarEstado(ctx context.Context, actor *model.Usuario, id uuid.UUID, nuevoEstado, comentario string) (*dto.GuiaResponse, error) {
	if !model.EstadoValido(nuevoEstado) {
		return nil, ErrEstadoInvalido
	}
	if !actor.Activo || actor.Eliminado {
		return nil, ErrUsuarioInactivo
	}

	guia, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrGuiaNoEncontrada
	}
	if actor.Rol == model.RolMotorizado && guia.MotorizadoAsignado != actor.ID {
		return nil, ErrGuiaAjena
	}

	estadoAnterior := guia.Estado
	if !transicionPermitida(actor.Rol, estadoAnterior, nuevoEstado) {
		return nil, ErrTransicionNoPermitida
	}
	if comentarioObligatorio(estadoAnterior, nuevoEstado) && !comentarioValido(comentario) {
		return nil, ErrComentarioRequerido
	}

	ahora := time.Now().UTC()
	var fechaEntrega *time.Time
	if nuevoEstado == model.EstadoEntregada {
		fechaEntrega = &ahora
	}

	comentario = strings.TrimSpace(comentario)

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		filas, err := s.repo.UpdateEstadoTx(tx, id, estadoAnterior, nuevoEstado, fechaEntrega)
		if err != nil {
			return err
		}
		if filas == 0 {
			// Otro actor ganó la carrera: el estado leído ya no es el actual.
			return ErrConflictoEstado
		}

		anterior := estadoAnterior
		entrada := &model.HistorialEstado{
			GuiaID:         id,
			Tipo:           model.HistorialCambioEstado,
			EstadoAnterior: &anterior,
			EstadoNuevo:    nuevoEstado,
			UsuarioID:      &actor.ID,
			FechaCambio:    ahora,
		}
		if comentario != "" {
			entrada.Comentario = &comentario
		}
		if err := s.historial.CreateTx(tx, entrada); err != nil {
			return err
		}

		if comentario != "" {
			return s.novedades.CreateTx(tx, &model.Novedad{
				GuiaID:            id,
				UsuarioID:         actor.ID,
				HistorialEstadoID: &entrada.ID,
				Comentario:        comentario,
				FechaCreacion:     ahora,
			})
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	s.invalidarGuia(id)

	// Alerta por correo a los administradores cuando una guía reporta
	// novedad — best-effort, nunca bloquea la transición.
	if nuevoEstado == model.EstadoNovedad && s.dispatcher != nil {
		if err := s.dispatcher.EnqueueAlertaNovedad(ctx, worker.AlertaNovedadPayload{
			GuiaID:     id.String(),
			NumeroGuia: guia.NumeroGuia,
			Motorizado: actor.Nombre,
			Comentario: comentario,
		}); err != nil {
			log.Warn().Err(err).Str("guia", guia.NumeroGuia).Msg("no se pudo encolar alerta de novedad")
		}
	}

	refrescada, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := guiaToResponse(refrescada)
	return &resp, nil
}

// ── ReasignarMotorizado ──────────────────────────────────────────────────────
// Not a state transition: estado stays put, but the change is audited with
// its own historial entry instead of silently mutating the row.

func (s *guiaService) ReasignarMotorizado(ctx context.Context, actor *model.Usuario, id uuid.UUID, motorizadoID uuid.UUID) (*dto.GuiaResponse, error) {
	if !actor.Activo || actor.Eliminado {
		return nil, ErrUsuarioInactivo
	}

	guia, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrGuiaNoEncontrada
	}

	nuevo, err := s.usuarios.FindByID(ctx, motorizadoID)
	if err != nil || nuevo.Rol != model.RolMotorizado || !nuevo.Activo || nuevo.Eliminado {
		return nil, ErrMotorizadoInvalido
	}

	anteriorNombre := ""
	if guia.Motorizado != nil {
		anteriorNombre = guia.Motorizado.Nombre
	}
	detalle := fmt.Sprintf("Reasignada de %s a %s", anteriorNombre, nuevo.Nombre)
	estado := guia.Estado
	ahora := time.Now().UTC()

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.UpdateMotorizadoTx(tx, id, motorizadoID); err != nil {
			return err
		}
		return s.historial.CreateTx(tx, &model.HistorialEstado{
			GuiaID:         id,
			Tipo:           model.HistorialReasignacion,
			EstadoAnterior: &estado,
			EstadoNuevo:    estado,
			UsuarioID:      &actor.ID,
			Comentario:     &detalle,
			FechaCambio:    ahora,
		})
	})
	if txErr != nil {
		return nil, txErr
	}

	s.invalidarGuia(id)

	refrescada, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := guiaToResponse(refrescada)
	return &resp, nil
}

// ── Crear ────────────────────────────────────────────────────────────────────

func (s *guiaService) Crear(ctx context.Context, actor *model.Usuario, req dto.CrearGuiaRequest) (*dto.GuiaResponse, error) {
	motorizadoID, err := uuid.Parse(req.MotorizadoAsignado)
	if err != nil {
		return nil, ErrMotorizadoInvalido
	}
	motorizado, err := s.usuarios.FindByID(ctx, motorizadoID)
	if err != nil || motorizado.Rol != model.RolMotorizado || !motorizado.Activo || motorizado.Eliminado {
		return nil, ErrMotorizadoInvalido
	}

	// Resuelve los productos fuera de la transacción; el precio del catálogo
	// en este momento queda congelado en la línea.
	type lineaResuelta struct {
		producto *model.Producto
		cantidad int
	}
	lineas := make([]lineaResuelta, 0, len(req.Productos))
	for _, item := range req.Productos {
		pid, err := uuid.Parse(item.ProductoID)
		if err != nil {
			return nil, fmt.Errorf("producto_id inválido: %w", err)
		}
		p, err := s.productos.FindByID(ctx, pid)
		if err != nil {
			return nil, fmt.Errorf("producto %s no encontrado", item.ProductoID)
		}
		if !p.Activo {
			return nil, fmt.Errorf("producto %s está inactivo", p.Nombre)
		}
		lineas = append(lineas, lineaResuelta{producto: p, cantidad: item.Cantidad})
	}

	ahora := time.Now().UTC()
	var guia model.Guia

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		numero, err := s.repo.NextNumero(tx)
		if err != nil {
			return err
		}

		guia = model.Guia{
			NumeroGuia:         fmt.Sprintf("G-%06d", numero),
			NombreCliente:      req.NombreCliente,
			TelefonoCliente:    req.TelefonoCliente,
			Direccion:          req.Direccion,
			Referencia:         req.Referencia,
			Observacion:        req.Observacion,
			MontoRecaudar:      req.MontoRecaudar,
			Estado:             model.EstadoAsignada,
			MotorizadoAsignado: motorizadoID,
			CreadoPor:          actor.ID,
			FechaAsignacion:    ahora,
		}
		if err := s.repo.CreateTx(tx, &guia); err != nil {
			return err
		}

		items := make([]model.GuiaProducto, 0, len(lineas))
		for _, l := range lineas {
			items = append(items, model.GuiaProducto{
				GuiaID:         guia.ID,
				ProductoID:     l.producto.ID,
				Cantidad:       l.cantidad,
				PrecioUnitario: l.producto.Precio,
			})
		}
		if err := s.repo.CreateProductosTx(tx, items); err != nil {
			return err
		}

		return s.historial.CreateTx(tx, &model.HistorialEstado{
			GuiaID:      guia.ID,
			Tipo:        model.HistorialCambioEstado,
			EstadoNuevo: model.EstadoAsignada,
			UsuarioID:   &actor.ID,
			FechaCambio: ahora,
		})
	})
	if txErr != nil {
		return nil, txErr
	}

	s.cache.InvalidatePrefix("guias")
	s.cache.InvalidatePrefix("reportes")

	resp := guiaToResponse(&guia)
	resp.MotorizadoNombre = motorizado.Nombre
	return &resp, nil
}

// ── Lecturas ─────────────────────────────────────────────────────────────────

func (s *guiaService) Listar(ctx context.Context, actor *model.Usuario, filter dto.GuiaFilter) (*dto.GuiaListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 200 {
		filter.Limit = 50
	}
	if actor.Rol == model.RolMotorizado {
		// Los motorizados sólo ven lo suyo y nunca las guías cerradas.
		filter.MotorizadoID = actor.ID.String()
		filter.ExcluirFinalizadas = true
	}

	key := fmt.Sprintf("guias-%s-%s-%s-%s-%s-%d-%d-%t",
		filter.Estado, filter.MotorizadoID, filter.Busqueda,
		filter.Desde, filter.Hasta, filter.Page, filter.Limit, filter.ExcluirFinalizadas)

	type listado struct {
		guias []model.Guia
		total int64
	}
	res, err := cache.Fetch(ctx, s.cache, key, ttlListas, func(ctx context.Context) (listado, error) {
		guias, total, err := s.repo.List(ctx, filter)
		return listado{guias: guias, total: total}, err
	})
	if err != nil {
		return nil, err
	}

	data := make([]dto.GuiaResponse, 0, len(res.guias))
	for i := range res.guias {
		r := guiaToResponse(&res.guias[i])
		if n, err := s.novedades.CountByGuia(ctx, res.guias[i].ID); err == nil {
			r.CantidadNovedades = n
		}
		data = append(data, r)
	}
	return &dto.GuiaListResponse{
		Data:  data,
		Total: res.total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

func (s *guiaService) Detalle(ctx context.Context, actor *model.Usuario, id uuid.UUID) (*dto.GuiaDetalleResponse, error) {
	guia, err := cache.Fetch(ctx, s.cache, claveGuia(id), ttlDetalle, func(ctx context.Context) (*model.Guia, error) {
		return s.repo.FindByID(ctx, id)
	})
	if err != nil {
		return nil, ErrGuiaNoEncontrada
	}
	if actor.Rol == model.RolMotorizado && guia.MotorizadoAsignado != actor.ID {
		return nil, ErrGuiaAjena
	}

	historial, err := cache.Fetch(ctx, s.cache, claveGuiaHistorial(id), ttlDetalle, func(ctx context.Context) ([]model.HistorialEstado, error) {
		return s.historial.ListByGuia(ctx, id)
	})
	if err != nil {
		return nil, err
	}

	novedades, err := cache.Fetch(ctx, s.cache, claveGuiaNovedades(id), ttlDetalle, func(ctx context.Context) ([]model.Novedad, error) {
		return s.novedades.ListByGuia(ctx, id)
	})
	if err != nil {
		return nil, err
	}

	resp := &dto.GuiaDetalleResponse{
		Guia:                   guiaToResponse(guia),
		Historial:              combinarHistorial(historial, novedades),
		Novedades:              novedadesToResponse(novedades),
		TransicionesPermitidas: TransicionesPermitidas(actor.Rol, guia.Estado),
	}
	resp.Guia.CantidadNovedades = int64(len(novedades))
	return resp, nil
}

func (s *guiaService) Eliminar(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return ErrGuiaNoEncontrada
	}
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.invalidarGuia(id)
	return nil
}

// ListarAsignadas feeds the dispatch-sheet PDF. Bypasses the cache: the
// sheet is generated on demand and must reflect the current assignment.
func (s *guiaService) ListarAsignadas(ctx context.Context) ([]model.Guia, error) {
	return s.repo.ListAsignadas(ctx)
}

// ── Armado de respuestas ─────────────────────────────────────────────────────

// combinarHistorial joins the audit trail with its novedades by FK and
// appends standalone novedades as their own rows, newest first.
func combinarHistorial(historial []model.HistorialEstado, novedades []model.Novedad) []dto.HistorialEntryResponse {
	porHistorial := make(map[uuid.UUID]*model.Novedad, len(novedades))
	for i := range novedades {
		if novedades[i].HistorialEstadoID != nil {
			porHistorial[*novedades[i].HistorialEstadoID] = &novedades[i]
		}
	}

	out := make([]dto.HistorialEntryResponse, 0, len(historial)+len(novedades))
	for i := range historial {
		h := &historial[i]
		e := dto.HistorialEntryResponse{
			ID:             h.ID.String(),
			Tipo:           h.Tipo,
			EstadoAnterior: h.EstadoAnterior,
			EstadoNuevo:    h.EstadoNuevo,
			Comentario:     h.Comentario,
			Fecha:          h.FechaCambio.Format(time.RFC3339),
		}
		if h.UsuarioID != nil {
			idStr := h.UsuarioID.String()
			e.UsuarioID = &idStr
		}
		if h.Usuario != nil {
			e.UsuarioNombre = h.Usuario.Nombre
		}
		if n, ok := porHistorial[h.ID]; ok {
			nr := novedadToResponse(n)
			e.Novedad = &nr
		}
		out = append(out, e)
	}

	for i := range novedades {
		n := &novedades[i]
		if n.HistorialEstadoID != nil {
			continue // ya incluida junto a su cambio de estado
		}
		nr := novedadToResponse(n)
		idStr := n.UsuarioID.String()
		out = append(out, dto.HistorialEntryResponse{
			ID:          "novedad-" + n.ID.String(),
			Tipo:        "novedad",
			EstadoNuevo: "",
			UsuarioID:   &idStr,
			Novedad:     &nr,
			Fecha:       n.FechaCreacion.Format(time.RFC3339),
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Fecha > out[j].Fecha })
	return out
}

func novedadToResponse(n *model.Novedad) dto.NovedadResponse {
	r := dto.NovedadResponse{
		ID:            n.ID.String(),
		UsuarioID:     n.UsuarioID.String(),
		Comentario:    n.Comentario,
		FechaCreacion: n.FechaCreacion.Format(time.RFC3339),
	}
	if n.Usuario != nil {
		r.UsuarioNombre = n.Usuario.Nombre
	}
	return r
}

func novedadesToResponse(novedades []model.Novedad) []dto.NovedadResponse {
	out := make([]dto.NovedadResponse, 0, len(novedades))
	for i := range novedades {
		out = append(out, novedadToResponse(&novedades[i]))
	}
	return out
}

func guiaToResponse(g *model.Guia) dto.GuiaResponse {
	resp := dto.GuiaResponse{
		ID:                 g.ID.String(),
		NumeroGuia:         g.NumeroGuia,
		NombreCliente:      g.NombreCliente,
		TelefonoCliente:    g.TelefonoCliente,
		Direccion:          g.Direccion,
		Referencia:         g.Referencia,
		Observacion:        g.Observacion,
		MontoRecaudar:      g.MontoRecaudar,
		Estado:             g.Estado,
		MotorizadoAsignado: g.MotorizadoAsignado.String(),
		CreadoPor:          g.CreadoPor.String(),
		FechaAsignacion:    g.FechaAsignacion.Format(time.RFC3339),
	}
	if g.Motorizado != nil {
		resp.MotorizadoNombre = g.Motorizado.Nombre
	}
	if g.FechaEntrega != nil {
		fe := g.FechaEntrega.Format(time.RFC3339)
		resp.FechaEntrega = &fe
	}
	for _, item := range g.Productos {
		nombre := ""
		if item.Producto != nil {
			nombre = item.Producto.Nombre
		}
		resp.Productos = append(resp.Productos, dto.GuiaProductoResponse{
			ProductoID:     item.ProductoID.String(),
			Nombre:         nombre,
			Cantidad:       item.Cantidad,
			PrecioUnitario: item.PrecioUnitario,
			Subtotal:       item.PrecioUnitario.Mul(decimal.NewFromInt(int64(item.Cantidad))),
		})
	}
	return resp
}
