package models

// Typed payloads, one per event type. Field names follow the producer
// wire format.

// PanicButtonPayload is carried by panic.button events.
type PanicButtonPayload struct {
	TipoAlerta  string `json:"tipo_alerta"`
	DeviceID    string `json:"device_id"`
	UserContext string `json:"user_context"`
}

// PlateReadPayload is carried by sensor.lpr events.
type PlateReadPayload struct {
	Placa           string  `json:"placa"`
	Velocidad       float64 `json:"velocidad"`
	Modelo          string  `json:"modelo"`
	Color           string  `json:"color"`
	SensorUbicacion string  `json:"sensor_ubicacion"`
}

// SpeedSensorPayload is carried by sensor.speed events.
type SpeedSensorPayload struct {
	Velocidad float64 `json:"velocidad"`
	SensorID  string  `json:"sensor_id"`
	Direccion string  `json:"direccion"`
}

// AcousticPayload is carried by sensor.acoustic events.
type AcousticPayload struct {
	TipoSonido          string  `json:"tipo_sonido"`
	Decibeles           float64 `json:"decibeles"`
	ProbabilidadCritica float64 `json:"probabilidad_critica"`
}

// CitizenReportPayload is carried by citizen.report events.
type CitizenReportPayload struct {
	TipoEvento string `json:"tipo_evento"`
	Mensaje    string `json:"mensaje"`
	Ubicacion  string `json:"ubicacion"`
	Origen     string `json:"origen"`
}
