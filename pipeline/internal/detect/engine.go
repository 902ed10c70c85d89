// Package detect evaluates per-event anomaly rules. Detection is a pure
// function of event type and payload: a fixed payload always yields the
// same ordered candidate list.
package detect

import (
	"fmt"

	"github.com/urbanwatch-systems/urbanwatch/common/models"
)

// Anomaly categories, as they appear in routing tables and dispatches.
const (
	CategoriaEmergenciaPersonal   = "EMERGENCIA PERSONAL"
	CategoriaIncendioReportado    = "INCENDIO REPORTADO"
	CategoriaEmergenciaGeneral    = "EMERGENCIA GENERAL"
	CategoriaVelocidadPeligrosa   = "EXCESO DE VELOCIDAD PELIGROSO"
	CategoriaExcesoVelocidad      = "EXCESO DE VELOCIDAD"
	CategoriaRegistroVehicular    = "REGISTRO VEHICULAR"
	CategoriaVelocidadExcesiva    = "VELOCIDAD EXCESIVA DETECTADA"
	CategoriaVelocidadSobreLimite = "VELOCIDAD SOBRE LÍMITE"
	CategoriaDisparo              = "DISPARO DETECTADO"
	CategoriaExplosion            = "EXPLOSIÓN DETECTADA"
	CategoriaVidrioRoto           = "VIDRIO ROTO DETECTADO"
	CategoriaRuidoExtremo         = "CONTAMINACIÓN ACÚSTICA EXTREMA"
	CategoriaAccidente            = "ACCIDENTE REPORTADO"
	CategoriaIncendioCiudadano    = "INCENDIO REPORTADO POR CIUDADANO"
	CategoriaAltercado            = "ALTERCADO REPORTADO"
	CategoriaEventoCritico        = "EVENTO CRÍTICO"
	CategoriaIncidenteCoordinado  = "POSIBLE INCIDENTE COORDINADO"
)

// Speed and noise thresholds, in km/h and dB.
const (
	plateSpeedCritical = 100
	plateSpeedMedium   = 70
	plateSpeedRecord   = 60
	sensorSpeedHigh    = 80
	sensorSpeedMedium  = 60
	decibelsExtreme    = 120
)

// Engine evaluates the anomaly rule table against one envelope at a time.
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// Detect returns the ordered candidate anomalies for the envelope,
// possibly none. Within a rule group the first qualifying branch wins;
// branches documented as additive are evaluated independently. An
// envelope with severity critical that matches no rule produces the
// generic fallback candidate.
func (e *Engine) Detect(env *models.EventEnvelope) []models.CandidateAnomaly {
	var out []models.CandidateAnomaly

	switch env.EventType {
	case models.EventPanicButton:
		out = detectPanicButton(env)
	case models.EventPlateRead:
		out = detectPlateRead(env)
	case models.EventSpeedSensor:
		out = detectSpeedSensor(env)
	case models.EventAcoustic:
		out = detectAcoustic(env)
	case models.EventCitizenReport:
		out = detectCitizenReport(env)
	}

	if len(out) == 0 && env.Severity == models.SeverityCritical {
		out = append(out, models.CandidateAnomaly{
			Level:   models.LevelAlto,
			Type:    CategoriaEventoCritico,
			Message: "Evento marcado como crítico por el productor",
			Details: fmt.Sprintf("Tipo de evento: %s, origen: %s", env.EventType, env.Source),
		})
	}

	return out
}

func detectPanicButton(env *models.EventEnvelope) []models.CandidateAnomaly {
	var p models.PanicButtonPayload
	if err := env.DecodePayload(&p); err != nil {
		return nil
	}

	switch p.TipoAlerta {
	case "panico":
		return []models.CandidateAnomaly{{
			Level:   models.LevelCritico,
			Type:    CategoriaEmergenciaPersonal,
			Message: "Botón de pánico activado",
			Details: fmt.Sprintf("Dispositivo: %s, contexto: %s", p.DeviceID, p.UserContext),
		}}
	case "incendio":
		return []models.CandidateAnomaly{{
			Level:   models.LevelCritico,
			Type:    CategoriaIncendioReportado,
			Message: "Incendio reportado desde botón de pánico",
			Details: fmt.Sprintf("Dispositivo: %s", p.DeviceID),
		}}
	case "emergencia":
		return []models.CandidateAnomaly{{
			Level:   models.LevelAlto,
			Type:    CategoriaEmergenciaGeneral,
			Message: "Emergencia general reportada",
			Details: fmt.Sprintf("Dispositivo: %s, contexto: %s", p.DeviceID, p.UserContext),
		}}
	}
	return nil
}

func detectPlateRead(env *models.EventEnvelope) []models.CandidateAnomaly {
	var p models.PlateReadPayload
	if err := env.DecodePayload(&p); err != nil {
		return nil
	}

	var out []models.CandidateAnomaly

	// First qualifying speed branch wins.
	switch {
	case p.Velocidad > plateSpeedCritical:
		out = append(out, models.CandidateAnomaly{
			Level:   models.LevelCritico,
			Type:    CategoriaVelocidadPeligrosa,
			Message: fmt.Sprintf("Vehículo a %.0f km/h detectado por cámara LPR", p.Velocidad),
			Details: fmt.Sprintf("Placa: %s, vehículo: %s %s, sensor: %s", p.Placa, p.Modelo, p.Color, p.SensorUbicacion),
		})
	case p.Velocidad > plateSpeedMedium:
		out = append(out, models.CandidateAnomaly{
			Level:   models.LevelMedio,
			Type:    CategoriaExcesoVelocidad,
			Message: fmt.Sprintf("Vehículo a %.0f km/h sobre el límite", p.Velocidad),
			Details: fmt.Sprintf("Placa: %s, sensor: %s", p.Placa, p.SensorUbicacion),
		})
	}

	// Vehicle registry entry is additive, independent of the branch above.
	if p.Velocidad > plateSpeedRecord {
		out = append(out, models.CandidateAnomaly{
			Level:   models.LevelInfo,
			Type:    CategoriaRegistroVehicular,
			Message: fmt.Sprintf("Registro vehicular a %.0f km/h", p.Velocidad),
			Details: fmt.Sprintf("Placa: %s, vehículo: %s %s", p.Placa, p.Modelo, p.Color),
		})
	}

	return out
}

func detectSpeedSensor(env *models.EventEnvelope) []models.CandidateAnomaly {
	var p models.SpeedSensorPayload
	if err := env.DecodePayload(&p); err != nil {
		return nil
	}

	switch {
	case p.Velocidad > sensorSpeedHigh:
		return []models.CandidateAnomaly{{
			Level:   models.LevelAlto,
			Type:    CategoriaVelocidadExcesiva,
			Message: fmt.Sprintf("Velocidad excesiva: %.0f km/h", p.Velocidad),
			Details: fmt.Sprintf("Sensor: %s, dirección: %s", p.SensorID, p.Direccion),
		}}
	case p.Velocidad > sensorSpeedMedium:
		return []models.CandidateAnomaly{{
			Level:   models.LevelMedio,
			Type:    CategoriaVelocidadSobreLimite,
			Message: fmt.Sprintf("Velocidad sobre el límite: %.0f km/h", p.Velocidad),
			Details: fmt.Sprintf("Sensor: %s, dirección: %s", p.SensorID, p.Direccion),
		}}
	}
	return nil
}

func detectAcoustic(env *models.EventEnvelope) []models.CandidateAnomaly {
	var p models.AcousticPayload
	if err := env.DecodePayload(&p); err != nil {
		return nil
	}

	var out []models.CandidateAnomaly

	switch p.TipoSonido {
	case "disparo":
		out = append(out, models.CandidateAnomaly{
			Level:   models.LevelCritico,
			Type:    CategoriaDisparo,
			Message: "Posible disparo detectado por sensor acústico",
			Details: fmt.Sprintf("Probabilidad crítica: %.2f, decibeles: %.0f dB", p.ProbabilidadCritica, p.Decibeles),
		})
	case "explosion":
		out = append(out, models.CandidateAnomaly{
			Level:   models.LevelCritico,
			Type:    CategoriaExplosion,
			Message: "Posible explosión detectada por sensor acústico",
			Details: fmt.Sprintf("Probabilidad crítica: %.2f, decibeles: %.0f dB", p.ProbabilidadCritica, p.Decibeles),
		})
	case "vidrio_roto":
		out = append(out, models.CandidateAnomaly{
			Level:   models.LevelAlto,
			Type:    CategoriaVidrioRoto,
			Message: "Vidrio roto detectado por sensor acústico",
			Details: fmt.Sprintf("Probabilidad crítica: %.2f, decibeles: %.0f dB", p.ProbabilidadCritica, p.Decibeles),
		})
	}

	// Extreme noise is additive, independent of the sound classification.
	if p.Decibeles > decibelsExtreme {
		out = append(out, models.CandidateAnomaly{
			Level:   models.LevelAlto,
			Type:    CategoriaRuidoExtremo,
			Message: fmt.Sprintf("Nivel de ruido extremo: %.0f dB", p.Decibeles),
			Details: fmt.Sprintf("Tipo de sonido: %s", p.TipoSonido),
		})
	}

	return out
}

func detectCitizenReport(env *models.EventEnvelope) []models.CandidateAnomaly {
	var p models.CitizenReportPayload
	if err := env.DecodePayload(&p); err != nil {
		return nil
	}

	switch p.TipoEvento {
	case "accidente":
		return []models.CandidateAnomaly{{
			Level:   models.LevelAlto,
			Type:    CategoriaAccidente,
			Message: "Accidente reportado por ciudadano",
			Details: fmt.Sprintf("Ubicación: %s, mensaje: %s", p.Ubicacion, p.Mensaje),
		}}
	case "incendio":
		return []models.CandidateAnomaly{{
			Level:   models.LevelCritico,
			Type:    CategoriaIncendioCiudadano,
			Message: "Incendio reportado por ciudadano",
			Details: fmt.Sprintf("Ubicación: %s, mensaje: %s", p.Ubicacion, p.Mensaje),
		}}
	case "altercado":
		return []models.CandidateAnomaly{{
			Level:   models.LevelMedio,
			Type:    CategoriaAltercado,
			Message: "Altercado reportado por ciudadano",
			Details: fmt.Sprintf("Ubicación: %s, origen: %s", p.Ubicacion, p.Origen),
		}}
	}
	return nil
}

// CompositeCandidate is the high-confidence signal surfaced when the
// panic-button, speed-sensor, and plate-read signatures coexist in one
// zone within the correlation window.
func CompositeCandidate(zone string) models.CandidateAnomaly {
	return models.CandidateAnomaly{
		Level:   models.LevelCritico,
		Type:    CategoriaIncidenteCoordinado,
		Message: "Patrón compuesto: pánico, velocidad y lectura de placa en la misma zona",
		Details: fmt.Sprintf("Zona: %s, ventana de correlación de 5 minutos", zone),
	}
}
