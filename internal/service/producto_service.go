package service

import (
	"context"
	"fmt"
	"time"

	"github.com/pirela/sistema-guia/internal/cache"
	"github.com/pirela/sistema-guia/internal/dto"
	"github.com/pirela/sistema-guia/internal/model"
	"github.com/pirela/sistema-guia/internal/repository"

	"github.com/google/uuid"
)

// ProductoService defines the business logic contract for the catalog.
type ProductoService interface {
	Crear(ctx context.Context, req dto.CrearProductoRequest) (*dto.ProductoResponse, error)
	ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.ProductoResponse, error)
	Listar(ctx context.Context, busqueda string, incluirInactivos bool) ([]dto.ProductoResponse, error)
	Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarProductoRequest) (*dto.ProductoResponse, error)
	Eliminar(ctx context.Context, id uuid.UUID) error
	Reactivar(ctx context.Context, id uuid.UUID) error
}

type productoService struct {
	repo  repository.ProductoRepository
	cache *cache.Cache
}

func NewProductoService(repo repository.ProductoRepository, c *cache.Cache) ProductoService {
	return &productoService{repo: repo, cache: c}
}

func (s *productoService) Crear(ctx context.Context, req dto.CrearProductoRequest) (*dto.ProductoResponse, error) {
	p := &model.Producto{
		CodigoSKU:         req.CodigoSKU,
		Nombre:            req.Nombre,
		NombreNormalizado: NormalizarNombre(req.Nombre),
		Descripcion:       req.Descripcion,
		Precio:            req.Precio,
		Activo:            true,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	s.cache.InvalidatePrefix("productos")
	resp := productoToResponse(p)
	return &resp, nil
}

func (s *productoService) ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.ProductoResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := productoToResponse(p)
	return &resp, nil
}

func (s *productoService) Listar(ctx context.Context, busqueda string, incluirInactivos bool) ([]dto.ProductoResponse, error) {
	key := fmt.Sprintf("productos-%s-%t", busqueda, incluirInactivos)
	productos, err := cache.Fetch(ctx, s.cache, key, 30*time.Second, func(ctx context.Context) ([]model.Producto, error) {
		return s.repo.List(ctx, busqueda, incluirInactivos)
	})
	if err != nil {
		return nil, err
	}
	resp := make([]dto.ProductoResponse, len(productos))
	for i := range productos {
		resp[i] = productoToResponse(&productos[i])
	}
	return resp, nil
}

func (s *productoService) Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarProductoRequest) (*dto.ProductoResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.CodigoSKU != nil {
		p.CodigoSKU = req.CodigoSKU
	}
	if req.Nombre != nil {
		p.Nombre = *req.Nombre
		p.NombreNormalizado = NormalizarNombre(*req.Nombre)
	}
	if req.Descripcion != nil {
		p.Descripcion = req.Descripcion
	}
	if req.Precio != nil {
		p.Precio = *req.Precio
	}
	if req.Activo != nil {
		p.Activo = *req.Activo
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	s.cache.InvalidatePrefix("productos")
	resp := productoToResponse(p)
	return &resp, nil
}

func (s *productoService) Eliminar(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.cache.InvalidatePrefix("productos")
	return nil
}

func (s *productoService) Reactivar(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Reactivar(ctx, id); err != nil {
		return err
	}
	s.cache.InvalidatePrefix("productos")
	return nil
}

func productoToResponse(p *model.Producto) dto.ProductoResponse {
	return dto.ProductoResponse{
		ID:          p.ID.String(),
		CodigoSKU:   p.CodigoSKU,
		Nombre:      p.Nombre,
		Descripcion: p.Descripcion,
		Precio:      p.Precio,
		Activo:      p.Activo,
	}
}
