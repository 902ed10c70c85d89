// Package dispatch routes alert batches to emergency entities and fans
// out the notification calls.
package dispatch

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/urbanwatch-systems/urbanwatch/common/models"
	"github.com/urbanwatch-systems/urbanwatch/pipeline/internal/detect"
)

// RoutingTable maps anomaly categories to the entities that respond to
// them. Unmapped categories contribute nothing to the routing union.
type RoutingTable struct {
	Routes map[string][]string `yaml:"routes"`
}

// DefaultTable returns the built-in category-to-entity mapping.
func DefaultTable() *RoutingTable {
	return &RoutingTable{Routes: map[string][]string{
		detect.CategoriaExcesoVelocidad:      {models.EntityPoliciaTransito},
		detect.CategoriaVelocidadPeligrosa:   {models.EntityPoliciaTransito, models.EntityPoliciaNacional},
		detect.CategoriaVelocidadExcesiva:    {models.EntityPoliciaTransito},
		detect.CategoriaVelocidadSobreLimite: {models.EntityPoliciaTransito},

		detect.CategoriaIncendioReportado:  {models.EntityBomberos},
		detect.CategoriaIncendioCiudadano:  {models.EntityBomberos},
		detect.CategoriaAccidente:          {models.EntityBomberosVoluntarios, models.EntityCruzRoja},
		detect.CategoriaDisparo:            {models.EntityPoliciaNacional},
		detect.CategoriaExplosion:          {models.EntityPoliciaNacional, models.EntityBomberos},
		detect.CategoriaVidrioRoto:         {models.EntityPoliciaNacional},
		detect.CategoriaEmergenciaPersonal: {models.EntityPoliciaNacional, models.EntityCruzRoja},
		detect.CategoriaEmergenciaGeneral:  {models.EntityPoliciaMunicipal},
		detect.CategoriaAltercado:          {models.EntityPoliciaMunicipal},
		detect.CategoriaEventoCritico:      {models.EntityPoliciaNacional},

		detect.CategoriaIncidenteCoordinado: {models.EntityPoliciaNacional},

		// Informational only: no dispatch target of their own.
		detect.CategoriaRegistroVehicular: {},
		detect.CategoriaRuidoExtremo:      {},
	}}
}

// LoadTable reads a routing table from a YAML file, falling back to the
// built-in mapping when path is empty.
func LoadTable(path string) (*RoutingTable, error) {
	if path == "" {
		return DefaultTable(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read routing table: %w", err)
	}

	var table RoutingTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("parse routing table: %w", err)
	}
	if len(table.Routes) == 0 {
		return nil, fmt.Errorf("routing table %s has no routes", path)
	}

	return &table, nil
}

// Route computes the dispatch targets for a batch: the union of every
// candidate category's entities, with national police added when any
// candidate is CRÍTICO, and municipal police as the default when the
// union ends up empty. The result is sorted for deterministic fan-out
// order.
func (t *RoutingTable) Route(batch *models.AlertBatch) []string {
	targets := make(map[string]bool)
	critical := false

	for _, a := range batch.Alerts {
		for _, entity := range t.Routes[a.Type] {
			targets[entity] = true
		}
		if a.Level == models.LevelCritico {
			critical = true
		}
	}

	if len(targets) == 0 {
		targets[models.EntityPoliciaMunicipal] = true
	}
	if critical {
		targets[models.EntityPoliciaNacional] = true
	}

	out := make([]string, 0, len(targets))
	for entity := range targets {
		out = append(out, entity)
	}
	sort.Strings(out)
	return out
}
