package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestCache returns a cache with a controllable clock and a sleep that
// records requested durations instead of blocking.
func newTestCache(cfg Config) (*Cache, *time.Time, *[]time.Duration) {
	c := New(cfg)
	now := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	var slept []time.Duration
	var mu sync.Mutex
	c.now = func() time.Time { return now }
	c.sleep = func(_ context.Context, d time.Duration) error {
		mu.Lock()
		slept = append(slept, d)
		mu.Unlock()
		return nil
	}
	return c, &now, &slept
}

func TestGetDentroDeVentanaNoLlamaAlProducer(t *testing.T) {
	c, _, _ := newTestCache(Config{})
	var llamadas int32

	producer := func(_ context.Context) (any, error) {
		atomic.AddInt32(&llamadas, 1)
		return "valor", nil
	}

	v, err := c.Get(context.Background(), "k", 30*time.Second, producer)
	require.NoError(t, err)
	assert.Equal(t, "valor", v)

	// Segunda lectura dentro de la ventana: mismo valor, cero llamadas nuevas.
	v, err = c.Get(context.Background(), "k", 30*time.Second, producer)
	require.NoError(t, err)
	assert.Equal(t, "valor", v)
	assert.EqualValues(t, 1, atomic.LoadInt32(&llamadas))
}

func TestGetExpiradaVuelveAlProducer(t *testing.T) {
	c, now, _ := newTestCache(Config{})
	var llamadas int32
	producer := func(_ context.Context) (any, error) {
		return int(atomic.AddInt32(&llamadas, 1)), nil
	}

	v1, err := c.Get(context.Background(), "k", 30*time.Second, producer)
	require.NoError(t, err)

	*now = now.Add(31 * time.Second)

	v2, err := c.Get(context.Background(), "k", 30*time.Second, producer)
	require.NoError(t, err)
	assert.NotEqual(t, v1, v2)
	assert.EqualValues(t, 2, atomic.LoadInt32(&llamadas))
}

func TestGetCoalesceLlamadasConcurrentes(t *testing.T) {
	c, _, _ := newTestCache(Config{})

	var llamadas int32
	arranque := make(chan struct{})
	producer := func(_ context.Context) (any, error) {
		atomic.AddInt32(&llamadas, 1)
		<-arranque
		return "compartido", nil
	}

	const n = 8
	var wg sync.WaitGroup
	resultados := make([]any, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := c.Get(context.Background(), "k", time.Minute, producer)
			assert.NoError(t, err)
			resultados[i] = v
		}(i)
	}

	// Da tiempo a que todos se registren contra la misma llamada en vuelo.
	time.Sleep(50 * time.Millisecond)
	close(arranque)
	wg.Wait()

	assert.EqualValues(t, 1, atomic.LoadInt32(&llamadas), "todas las lecturas comparten una sola llamada")
	for _, v := range resultados {
		assert.Equal(t, "compartido", v)
	}
}

func TestProduceRespetaIntervaloMinimo(t *testing.T) {
	c, _, slept := newTestCache(Config{MinInterval: time.Second})

	producer := func(_ context.Context) (any, error) { return "x", nil }

	_, err := c.Get(context.Background(), "a", time.Minute, producer)
	require.NoError(t, err)
	_, err = c.Get(context.Background(), "b", time.Minute, producer)
	require.NoError(t, err)
	_, err = c.Get(context.Background(), "c", time.Minute, producer)
	require.NoError(t, err)

	// Primera llamada sin espera; la segunda espera 1s; la tercera 2s (los
	// turnos se reservan bajo el lock aunque el reloj no avance).
	require.Len(t, *slept, 3)
	assert.Equal(t, time.Duration(0), (*slept)[0])
	assert.Equal(t, time.Second, (*slept)[1])
	assert.Equal(t, 2*time.Second, (*slept)[2])
}

func TestProduceReintentaConBackoffAnteRateLimit(t *testing.T) {
	c, _, slept := newTestCache(Config{MinInterval: time.Millisecond, RetryDelay: 2 * time.Second, MaxRetries: 3})

	var intentos int32
	producer := func(_ context.Context) (any, error) {
		if atomic.AddInt32(&intentos, 1) < 3 {
			return nil, fmt.Errorf("backend: %w", ErrRateLimited)
		}
		return "ok", nil
	}

	v, err := c.Get(context.Background(), "k", time.Minute, producer)
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.EqualValues(t, 3, atomic.LoadInt32(&intentos))

	// slot de throttle + 2s + 4s de backoff exponencial
	require.Len(t, *slept, 3)
	assert.Equal(t, 2*time.Second, (*slept)[1])
	assert.Equal(t, 4*time.Second, (*slept)[2])
}

func TestProduceAgotaReintentosYDevuelveUltimoError(t *testing.T) {
	c, _, _ := newTestCache(Config{MaxRetries: 3})

	var intentos int32
	producer := func(_ context.Context) (any, error) {
		atomic.AddInt32(&intentos, 1)
		return nil, fmt.Errorf("backend: %w", ErrRateLimited)
	}

	_, err := c.Get(context.Background(), "k", time.Minute, producer)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRateLimited))
	assert.EqualValues(t, 3, atomic.LoadInt32(&intentos))

	// Un error nunca se cachea: la siguiente lectura vuelve al backend.
	_, _ = c.Get(context.Background(), "k", time.Minute, producer)
	assert.EqualValues(t, 6, atomic.LoadInt32(&intentos))
}

func TestProduceNoReintentaErroresComunes(t *testing.T) {
	c, _, _ := newTestCache(Config{MaxRetries: 3})

	var intentos int32
	quiebre := errors.New("conexion rechazada")
	producer := func(_ context.Context) (any, error) {
		atomic.AddInt32(&intentos, 1)
		return nil, quiebre
	}

	_, err := c.Get(context.Background(), "k", time.Minute, producer)
	assert.ErrorIs(t, err, quiebre)
	assert.EqualValues(t, 1, atomic.LoadInt32(&intentos), "solo los rate limits se reintentan")
}

func TestInvalidateEsIdempotente(t *testing.T) {
	c, _, _ := newTestCache(Config{})
	_, err := c.Get(context.Background(), "k", time.Minute, func(_ context.Context) (any, error) { return 1, nil })
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())

	c.Invalidate("k")
	assert.Equal(t, 0, c.Len())
	c.Invalidate("k") // ya ausente: no pasa nada
	c.Invalidate("nunca-existio")
	assert.Equal(t, 0, c.Len())
}

func TestInvalidatePrefixSoloBorraElPrefijo(t *testing.T) {
	c, _, _ := newTestCache(Config{})
	uno := func(_ context.Context) (any, error) { return 1, nil }
	for _, k := range []string{"guias-p1", "guias-p2", "productos-x"} {
		_, err := c.Get(context.Background(), k, time.Minute, uno)
		require.NoError(t, err)
	}

	c.InvalidatePrefix("guias")
	assert.Equal(t, 1, c.Len())

	// La clave de productos sigue viva.
	var llamadas int32
	_, err := c.Get(context.Background(), "productos-x", time.Minute, func(_ context.Context) (any, error) {
		atomic.AddInt32(&llamadas, 1)
		return 2, nil
	})
	require.NoError(t, err)
	assert.EqualValues(t, 0, atomic.LoadInt32(&llamadas))
}

func TestSweepEvacuaLlamadasColgadas(t *testing.T) {
	c, now, _ := newTestCache(Config{InFlightMaxAge: 30 * time.Second})

	// Registra una llamada en vuelo a mano, como si su producer nunca volviera.
	colgada := &call{done: make(chan struct{}), started: *now}
	c.mu.Lock()
	c.inflight["k"] = colgada
	c.mu.Unlock()

	c.sweepInFlight()
	c.mu.Lock()
	_, sigue := c.inflight["k"]
	c.mu.Unlock()
	assert.True(t, sigue, "aun no supera la edad maxima")

	*now = now.Add(31 * time.Second)
	c.sweepInFlight()
	c.mu.Lock()
	_, sigue = c.inflight["k"]
	c.mu.Unlock()
	assert.False(t, sigue, "superada la edad maxima, el marcador se evacua")

	// Una nueva lectura del mismo key arranca un fetch nuevo en vez de
	// quedarse esperando a la llamada colgada.
	v, err := c.Get(context.Background(), "k", time.Minute, func(_ context.Context) (any, error) { return "fresco", nil })
	require.NoError(t, err)
	assert.Equal(t, "fresco", v)
}

func TestFetchTipado(t *testing.T) {
	c, _, _ := newTestCache(Config{})
	v, err := Fetch(context.Background(), c, "k", time.Minute, func(_ context.Context) ([]string, error) {
		return []string{"a", "b"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, v)
}
