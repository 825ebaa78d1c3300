package worker

// alerta_worker.go
// Processes novedad-alert jobs: when a guide enters "novedad" every active
// administrador gets an email with the courier's comment.

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pirela/sistema-guia/internal/infra"
	"github.com/pirela/sistema-guia/internal/repository"

	"github.com/rs/zerolog/log"
)

// AlertaNovedadPayload is the job envelope sent to QueueAlertas.
type AlertaNovedadPayload struct {
	GuiaID     string `json:"guia_id"`
	NumeroGuia string `json:"numero_guia"`
	Motorizado string `json:"motorizado"`
	Comentario string `json:"comentario"`
}

type AlertaWorker struct {
	mailer   *infra.Mailer
	usuarios repository.UsuarioRepository
}

func NewAlertaWorker(mailer *infra.Mailer, usuarios repository.UsuarioRepository) *AlertaWorker {
	return &AlertaWorker{mailer: mailer, usuarios: usuarios}
}

func (w *AlertaWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload AlertaNovedadPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("alerta_worker: payload inválido")
		return nil // un payload corrupto no mejora con reintentos
	}

	destinatarios, err := w.usuarios.EmailsAdministradores(ctx)
	if err != nil {
		return fmt.Errorf("alerta_worker: destinatarios: %w", err)
	}
	if len(destinatarios) == 0 {
		log.Warn().Str("guia", payload.NumeroGuia).Msg("alerta_worker: no hay administradores con email")
		return nil
	}

	asunto := fmt.Sprintf("Novedad en guía %s", payload.NumeroGuia)
	cuerpo := fmt.Sprintf(
		"La guía %s reportó una novedad.\n\nMotorizado: %s\nComentario: %s\n",
		payload.NumeroGuia, payload.Motorizado, payload.Comentario,
	)

	if err := w.mailer.SendAlerta(destinatarios, asunto, cuerpo); err != nil {
		return fmt.Errorf("alerta_worker: envío: %w", err)
	}
	log.Info().Str("guia", payload.NumeroGuia).Int("destinatarios", len(destinatarios)).Msg("alerta de novedad enviada")
	return nil
}
