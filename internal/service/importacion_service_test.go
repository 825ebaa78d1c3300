package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/pirela/sistema-guia/internal/cache"
	"github.com/pirela/sistema-guia/internal/dto"
	"github.com/pirela/sistema-guia/internal/infra"
	"github.com/pirela/sistema-guia/internal/model"
	"github.com/pirela/sistema-guia/internal/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubShopify returns a canned order and counts fetches.
type stubShopify struct {
	orden    *infra.ShopifyOrder
	err      error
	llamadas int
}

func (s *stubShopify) ObtenerOrden(_ context.Context, _ string) (*infra.ShopifyOrder, error) {
	s.llamadas++
	if s.err != nil {
		return nil, s.err
	}
	return s.orden, nil
}

func ordenDePrueba() *infra.ShopifyOrder {
	o := &infra.ShopifyOrder{
		ID:                987,
		OrderNumber:       1234,
		Name:              "#1234",
		Note:              "entregar en la tarde",
		CurrentTotalPrice: "86000",
		LineItems: []infra.ShopifyLineItem{
			{ID: 1, Title: "Café Premium 250g", Quantity: 2, Price: "25000", SKU: "CAFE-250"},
			{ID: 2, Title: "Panela Orgánica", Quantity: 3, Price: "12000"},
		},
	}
	o.NoteAttributes = []struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	}{
		{Name: "Nombre y Apellido", Value: "María Pérez"},
		{Name: "Teléfono de Contacto (Celular)", Value: "3001234567"},
		{Name: "Departamento", Value: "Antioquia"},
		{Name: "Ciudad", Value: "Medellín"},
		{Name: "Dirección completa", Value: "Calle 10 # 20-30"},
		{Name: "Bario", Value: "El Poblado"},
	}
	return o
}

type importFixture struct {
	svc       service.ImportacionService
	shopify   *stubShopify
	guias     *stubGuiaRepo
	productos *stubProductoRepo
	usuarios  *stubUsuarioRepo
	historial *stubHistorialRepo
	admin     *model.Usuario
	moto      *model.Usuario
}

func newImportFixture(t *testing.T) *importFixture {
	t.Helper()
	shopify := &stubShopify{orden: ordenDePrueba()}
	guias := newStubGuiaRepo()
	productos := newStubProductoRepo()
	usuarios := newStubUsuarioRepo()
	historial := &stubHistorialRepo{}

	admin := usuarios.add(&model.Usuario{Username: "admin", Nombre: "Admin", Rol: model.RolAdministrador, Activo: true})
	moto := usuarios.add(&model.Usuario{Username: "moto", Nombre: "Carlos", Rol: model.RolMotorizado, Activo: true})

	svc := service.NewImportacionService(shopify, guias, productos, usuarios, historial, cache.New(cache.Config{}))
	return &importFixture{
		svc: svc, shopify: shopify, guias: guias, productos: productos,
		usuarios: usuarios, historial: historial, admin: admin, moto: moto,
	}
}

func TestImportarCreaGuiaDesdeOrden(t *testing.T) {
	f := newImportFixture(t)

	resp, err := f.svc.Importar(context.Background(), f.admin, dto.ImportarOrdenRequest{OrderNumber: "#1234"})
	require.NoError(t, err)

	assert.Equal(t, "SH-1234", resp.NumeroGuia)
	assert.Equal(t, model.EstadoAsignada, resp.Estado)
	assert.Equal(t, "María Pérez", resp.NombreCliente)
	assert.Equal(t, "3001234567", resp.TelefonoCliente)
	assert.Equal(t, "Antioquia, Medellín, Calle 10 # 20-30", resp.Direccion)
	require.NotNil(t, resp.Referencia)
	assert.Equal(t, "El Poblado", *resp.Referencia)
	assert.True(t, resp.MontoRecaudar.Equal(decimal.NewFromInt(86000)))
	assert.Equal(t, "Carlos", resp.MotorizadoNombre, "sin motorizado explícito se asigna el primero activo")

	// Dos líneas, cada una con el precio de la orden.
	g, err := f.guias.FindByNumero(context.Background(), "SH-1234")
	require.NoError(t, err)
	items := f.guias.productos[g.ID]
	require.Len(t, items, 2)

	require.Len(t, f.historial.entradas, 1)
	assert.Equal(t, model.EstadoAsignada, f.historial.entradas[0].EstadoNuevo)
}

func TestImportarEsIdempotentePorNumero(t *testing.T) {
	f := newImportFixture(t)

	primero, err := f.svc.Importar(context.Background(), f.admin, dto.ImportarOrdenRequest{OrderNumber: "1234"})
	require.NoError(t, err)

	_, err = f.svc.Importar(context.Background(), f.admin, dto.ImportarOrdenRequest{OrderNumber: "1234"})
	require.Error(t, err)
	assert.ErrorIs(t, err, service.ErrOrdenYaImportada)

	var dup *service.OrdenYaImportadaError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, primero.ID, dup.GuiaID)
	assert.Equal(t, "SH-1234", dup.NumeroGuia)

	// Sólo existe una guía.
	lista, total, _ := f.guias.List(context.Background(), dto.GuiaFilter{})
	assert.Len(t, lista, 1)
	assert.EqualValues(t, 1, total)
}

func TestImportarReutilizaLaOrdenCacheada(t *testing.T) {
	f := newImportFixture(t)

	_, err := f.svc.Importar(context.Background(), f.admin, dto.ImportarOrdenRequest{OrderNumber: "1234"})
	require.NoError(t, err)
	_, _ = f.svc.Importar(context.Background(), f.admin, dto.ImportarOrdenRequest{OrderNumber: "1234"})

	assert.Equal(t, 1, f.shopify.llamadas, "el doble click no duplica la llamada a Shopify")
}

func TestImportarResuelveProductosPorSKUNombreOCreacion(t *testing.T) {
	f := newImportFixture(t)

	// Existente por SKU.
	sku := "CAFE-250"
	porSKU := f.productos.add(&model.Producto{
		CodigoSKU: &sku, Nombre: "Cafe 250", NombreNormalizado: "cafe 250",
		Precio: decimal.NewFromInt(20000), Activo: true,
	})
	// Existente por nombre normalizado (sin SKU, con tildes distintas).
	porNombre := f.productos.add(&model.Producto{
		Nombre: "PANELA ORGANICA", NombreNormalizado: "panela organica",
		Precio: decimal.NewFromInt(11000), Activo: true,
	})

	_, err := f.svc.Importar(context.Background(), f.admin, dto.ImportarOrdenRequest{OrderNumber: "1234"})
	require.NoError(t, err)

	g, _ := f.guias.FindByNumero(context.Background(), "SH-1234")
	items := f.guias.productos[g.ID]
	require.Len(t, items, 2)
	ids := []string{items[0].ProductoID.String(), items[1].ProductoID.String()}
	assert.Contains(t, ids, porSKU.ID.String(), "línea con SKU conocido usa el producto existente")
	assert.Contains(t, ids, porNombre.ID.String(), "línea sin SKU matchea por nombre normalizado")
	assert.Len(t, f.productos.productos, 2, "no se crean duplicados")
}

func TestImportarCreaProductoDesconocidoConSKUSintetico(t *testing.T) {
	f := newImportFixture(t)

	_, err := f.svc.Importar(context.Background(), f.admin, dto.ImportarOrdenRequest{OrderNumber: "1234"})
	require.NoError(t, err)

	// La segunda línea no trae SKU: se crea con SHOPIFY-{item id}.
	creado, err := f.productos.FindBySKUTx(nil, "SHOPIFY-2")
	require.NoError(t, err)
	assert.Equal(t, "Panela Orgánica", creado.Nombre)
	assert.Equal(t, "panela organica", creado.NombreNormalizado)
	assert.True(t, creado.Precio.Equal(decimal.NewFromInt(12000)))
}

func TestImportarSinMotorizadoActivoFalla(t *testing.T) {
	f := newImportFixture(t)
	f.moto.Activo = false

	_, err := f.svc.Importar(context.Background(), f.admin, dto.ImportarOrdenRequest{OrderNumber: "1234"})
	assert.ErrorIs(t, err, service.ErrMotorizadoInvalido)
}

func TestImportarOrdenInexistentePropagaError(t *testing.T) {
	f := newImportFixture(t)
	f.shopify.err = infra.ErrOrdenNoEncontrada

	_, err := f.svc.Importar(context.Background(), f.admin, dto.ImportarOrdenRequest{OrderNumber: "9999"})
	assert.ErrorIs(t, err, infra.ErrOrdenNoEncontrada)
}

func TestImportarConMotorizadoExplicito(t *testing.T) {
	f := newImportFixture(t)
	otro := f.usuarios.add(&model.Usuario{Username: "otro", Nombre: "Pedro", Rol: model.RolMotorizado, Activo: true})

	resp, err := f.svc.Importar(context.Background(), f.admin, dto.ImportarOrdenRequest{
		OrderNumber:  "1234",
		MotorizadoID: otro.ID.String(),
	})
	require.NoError(t, err)
	assert.Equal(t, otro.ID.String(), resp.MotorizadoAsignado)
}
