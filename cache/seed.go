package cache

import (
	"time"

	"github.com/opencivic/citizen-reports-sync/models"
)

// SeedSampleData inserts a fixed starter dataset when the cache is empty so a
// fresh install has something to show. Calling it again is a no-op.
func (c *ReportCache) SeedSampleData() []models.Report {
	c.mu.Lock()
	defer c.mu.Unlock()

	existing := c.readReports()
	if len(existing) > 0 {
		return existing
	}

	samples := sampleReports()
	c.writeReports(samples)
	return samples
}

func sampleReports() []models.Report {
	return []models.Report{
		{
			ID:          1,
			Title:       "Hundimiento en carretera principal",
			Description: "Socavón identificado en el kilómetro 12.5 de la carretera hacia Kepashiato. Riesgo alto para tránsito pesado.",
			Category:    models.CategoryInfrastructure,
			Location:    "Carretera Echarati - Kepashiato, km 12.5",
			Status:      models.StatusPending,
			CreatedAt:   time.Date(2025, 10, 2, 10, 20, 0, 0, time.UTC),
			UpdatedAt:   time.Date(2025, 10, 2, 10, 20, 0, 0, time.UTC),
			UserID:      102,
			UserName:    "Brigada Vial Sector 2",
		},
		{
			ID:          2,
			Title:       "Deslizamiento parcial por lluvias",
			Description: "Bloqueo parcial con material suelto a la altura del Puente Kiteni. Tránsito restringido a un carril.",
			Category:    models.CategoryEnvironment,
			Location:    "Margen izquierda del río Urubamba, Puente Kiteni",
			Status:      models.StatusInProgress,
			CreatedAt:   time.Date(2025, 10, 1, 6, 15, 0, 0, time.UTC),
			UpdatedAt:   time.Date(2025, 10, 3, 8, 45, 0, 0, time.UTC),
			UserID:      87,
			UserName:    "Centro de Control Echarati",
		},
		{
			ID:          3,
			Title:       "Señalización vertical caída",
			Description: "Poste de señalización de curva peligrosa derribado por choque. Requiere reposición urgente.",
			Category:    models.CategorySecurity,
			Location:    "Curva de Quepashiato, sector San Martín",
			Status:      models.StatusResolved,
			CreatedAt:   time.Date(2025, 9, 18, 12, 0, 0, 0, time.UTC),
			UpdatedAt:   time.Date(2025, 9, 19, 9, 32, 0, 0, time.UTC),
			UserID:      54,
			UserName:    "Equipo de Señalización",
		},
	}
}
