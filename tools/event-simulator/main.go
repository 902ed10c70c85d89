// Command event-simulator generates realistic city-sensor events and
// posts them to the ingress /events endpoint. Useful for exercising the
// full pipeline locally: detection, correlation, dispatch.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/urbanwatch-systems/urbanwatch/common/models"
)

var (
	ingressURL = flag.String("ingress-url", "http://localhost:8080", "Ingress endpoint URL")
	count      = flag.Int("count", 100, "Number of events to generate")
	interval   = flag.Duration("interval", 100*time.Millisecond, "Interval between batches")
	eventTypes = flag.String("types", strings.Join(models.EventTypes, ","), "Comma-separated list of event types")
	batchSize  = flag.Int("batch-size", 10, "Number of events per request (1 posts single events)")
	burstZone  = flag.String("burst-zone", "", "Emit a panic.button + sensor.speed + sensor.lpr burst in this zone first")
)

type zone struct {
	name     string
	lat, lon float64
}

var zones = []zone{
	{"Zona 10", 14.6091, -90.5252},
	{"Zona 1", 14.6349, -90.5069},
	{"Zona 4", 14.6198, -90.4789},
	{"Zona 9", 14.5958, -90.5025},
	{"Zona 13", 14.6070, -90.4842},
	{"Centro Histórico", 14.6407, -90.5133},
}

var (
	vehicleModels = []string{"Toyota Corolla", "Honda Civic", "Mazda 3", "Nissan Sentra", "Hyundai Elantra", "Ford Mustang", "Chevrolet Spark"}
	vehicleColors = []string{"blanco", "negro", "gris", "rojo", "azul", "plateado"}
	lprLocations  = []string{"Av. Reforma", "6ta Avenida", "Blvd. Los Próceres", "Diagonal 6", "Calzada Roosevelt"}
	directions    = []string{"Norte", "Sur", "Este", "Oeste", "Noreste", "Suroeste"}
	panicDevices  = []string{"BTN-Z10-001", "BTN-Z10-002", "BTN-Z10-003", "KIOSK-Z10-01", "APP-MOBILE-001"}
	userContexts  = []string{"movil", "quiosco", "web"}
	citizenSpots  = []string{"6ta Avenida y 12 calle", "Plaza central", "Parque zona 10", "Centro comercial", "Avenida reforma"}

	citizenMessages = map[string][]string{
		"accidente": {
			"Choque entre dos vehículos",
			"Motociclista accidentado",
			"Vehículo volcado en la vía",
			"Accidente con heridos",
		},
		"incendio": {
			"Humo saliendo de edificio",
			"Fuego en contenedor de basura",
			"Incendio en vehículo estacionado",
			"Llamas visibles en local comercial",
		},
		"altercado": {
			"Personas discutiendo violentamente",
			"Pelea en vía pública",
			"Disturbio cerca de bar",
			"Grupo causando desorden",
		},
	}
)

func main() {
	flag.Parse()

	gofakeit.Seed(time.Now().UnixNano())

	types := parseTypes(*eventTypes)
	if len(types) == 0 {
		log.Fatal("no event types selected")
	}
	for _, t := range types {
		if !models.KnownEventType(t) {
			log.Fatalf("unknown event type %q", t)
		}
	}

	log.Printf("Starting event simulator:")
	log.Printf("  Ingress URL: %s", *ingressURL)
	log.Printf("  Event count: %d", *count)
	log.Printf("  Batch size: %d", *batchSize)
	log.Printf("  Interval: %v", *interval)
	log.Printf("  Event types: %v", types)

	client := &http.Client{Timeout: 10 * time.Second}

	successCount := 0
	failCount := 0

	if *burstZone != "" {
		burst := coordinatedBurst(*burstZone)
		if err := send(client, burst); err != nil {
			log.Printf("Failed to send burst: %v", err)
			failCount += len(burst)
		} else {
			log.Printf("Sent coordinated burst of %d events in %s", len(burst), *burstZone)
			successCount += len(burst)
		}
	}

	batch := make([]models.EventEnvelope, 0, *batchSize)
	for i := 0; i < *count; i++ {
		eventType := types[rand.Intn(len(types))]
		batch = append(batch, generateEvent(eventType))

		if len(batch) >= *batchSize || i == *count-1 {
			if err := send(client, batch); err != nil {
				log.Printf("Failed to send batch: %v", err)
				failCount += len(batch)
			} else {
				successCount += len(batch)
				if successCount%50 == 0 {
					log.Printf("Progress: %d/%d events sent", successCount, *count)
				}
			}
			batch = batch[:0]

			if *interval > 0 && i < *count-1 {
				time.Sleep(*interval)
			}
		}
	}

	log.Printf("Simulation complete:")
	log.Printf("  Success: %d events", successCount)
	log.Printf("  Failed: %d events", failCount)
}

func parseTypes(s string) []string {
	var result []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			result = append(result, t)
		}
	}
	return result
}

func generateEvent(eventType string) models.EventEnvelope {
	z := zones[rand.Intn(len(zones))]
	payload, severity := generatePayload(eventType)
	return envelope(eventType, z, severity, payload)
}

// coordinatedBurst emits the three event types whose co-occurrence in
// one zone the correlation stage flags as a possible coordinated
// incident.
func coordinatedBurst(zoneName string) []models.EventEnvelope {
	z := zones[0]
	for _, candidate := range zones {
		if candidate.name == zoneName {
			z = candidate
			break
		}
	}
	z.name = zoneName

	batch := make([]models.EventEnvelope, 0, 3)
	for _, t := range []string{models.EventPanicButton, models.EventSpeedSensor, models.EventPlateRead} {
		payload, severity := generatePayload(t)
		batch = append(batch, envelope(t, z, severity, payload))
	}
	return batch
}

func envelope(eventType string, z zone, severity string, payload interface{}) models.EventEnvelope {
	raw, err := json.Marshal(payload)
	if err != nil {
		log.Fatalf("marshal %s payload: %v", eventType, err)
	}
	now := time.Now().UTC()
	lat, lon := z.lat, z.lon
	return models.EventEnvelope{
		EventVersion:  "1.0",
		EventType:     eventType,
		EventID:       uuid.NewString(),
		Producer:      "event-simulator",
		Source:        "simulated",
		CorrelationID: uuid.NewString(),
		TraceID:       uuid.NewString(),
		Timestamp:     &now,
		PartitionKey:  strings.ToLower(strings.ReplaceAll(z.name, " ", "_")),
		Geo:           &models.GeoLocation{Zone: z.name, Lat: &lat, Lon: &lon},
		Severity:      severity,
		Payload:       raw,
	}
}

func generatePayload(eventType string) (interface{}, string) {
	switch eventType {
	case models.EventPanicButton:
		alert := gofakeit.RandomString([]string{"panico", "emergencia", "incendio"})
		severity := models.SeverityWarning
		if alert == "panico" || alert == "incendio" {
			severity = models.SeverityCritical
		}
		return models.PanicButtonPayload{
			TipoAlerta:  alert,
			DeviceID:    gofakeit.RandomString(panicDevices),
			UserContext: gofakeit.RandomString(userContexts),
		}, severity

	case models.EventPlateRead:
		speed := float64(gofakeit.Number(30, 110))
		severity := models.SeverityInfo
		if speed > 100 {
			severity = models.SeverityCritical
		} else if speed > 70 {
			severity = models.SeverityWarning
		}
		return models.PlateReadPayload{
			Placa:           randomPlate(),
			Velocidad:       speed,
			Modelo:          gofakeit.RandomString(vehicleModels),
			Color:           gofakeit.RandomString(vehicleColors),
			SensorUbicacion: gofakeit.RandomString(lprLocations),
		}, severity

	case models.EventSpeedSensor:
		speed := float64(gofakeit.Number(20, 120))
		severity := models.SeverityInfo
		if speed > 80 {
			severity = models.SeverityCritical
		} else if speed > 60 {
			severity = models.SeverityWarning
		}
		return models.SpeedSensorPayload{
			Velocidad: speed,
			SensorID:  fmt.Sprintf("SPEED-Z10-%03d", gofakeit.Number(0, 9)),
			Direccion: gofakeit.RandomString(directions),
		}, severity

	case models.EventAcoustic:
		sound := gofakeit.RandomString([]string{"disparo", "explosion", "vidrio_roto"})
		var decibels, probability float64
		severity := models.SeverityInfo
		switch sound {
		case "disparo":
			decibels = float64(gofakeit.Number(140, 170))
			probability = gofakeit.Float64Range(0.6, 0.95)
			severity = models.SeverityCritical
		case "explosion":
			decibels = float64(gofakeit.Number(160, 200))
			probability = gofakeit.Float64Range(0.7, 0.95)
			severity = models.SeverityCritical
		default:
			decibels = float64(gofakeit.Number(85, 115))
			probability = gofakeit.Float64Range(0.5, 0.9)
			if probability > 0.7 {
				severity = models.SeverityWarning
			}
		}
		return models.AcousticPayload{
			TipoSonido:          sound,
			Decibeles:           decibels,
			ProbabilidadCritica: float64(int(probability*100)) / 100,
		}, severity

	case models.EventCitizenReport:
		report := gofakeit.RandomString([]string{"accidente", "incendio", "altercado"})
		severity := models.SeverityInfo
		switch report {
		case "incendio":
			severity = models.SeverityCritical
		case "accidente":
			severity = models.SeverityWarning
		}
		return models.CitizenReportPayload{
			TipoEvento: report,
			Mensaje:    gofakeit.RandomString(citizenMessages[report]),
			Ubicacion:  gofakeit.RandomString(citizenSpots),
			Origen:     gofakeit.RandomString([]string{"usuario", "app", "punto_fisico"}),
		}, severity

	default:
		return map[string]interface{}{}, models.SeverityInfo
	}
}

func randomPlate() string {
	return fmt.Sprintf("%s-%03d%s",
		gofakeit.RandomString([]string{"P", "C", "A", "M", "O"}),
		gofakeit.Number(0, 999),
		strings.ToUpper(gofakeit.LetterN(2)))
}

func send(client *http.Client, events []models.EventEnvelope) error {
	var body []byte
	var err error
	if len(events) == 1 {
		body, err = json.Marshal(events[0])
	} else {
		body, err = json.Marshal(events)
	}
	if err != nil {
		return fmt.Errorf("failed to encode events: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, *ingressURL+"/events", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("ingress returned status %d", resp.StatusCode)
	}
	return nil
}
