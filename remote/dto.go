package remote

import (
	"time"

	"github.com/opencivic/citizen-reports-sync/models"
)

// reportDTO is the wire shape of a report. Timestamps travel as ISO-8601
// strings; the offline-sync flags never cross the wire.
type reportDTO struct {
	ID          int      `json:"id,omitempty"`
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	Category    string   `json:"category,omitempty"`
	Location    string   `json:"location,omitempty"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
	Status      string   `json:"status,omitempty"`
	CreatedAt   string   `json:"createdAt,omitempty"`
	UpdatedAt   string   `json:"updatedAt,omitempty"`
	UserID      int      `json:"userId,omitempty"`
	UserName    string   `json:"userName,omitempty"`
	Photos      []string `json:"photos,omitempty"`
}

func toDTO(r models.Report) reportDTO {
	dto := reportDTO{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Category:    r.Category.String(),
		Location:    r.Location,
		Latitude:    r.Latitude,
		Longitude:   r.Longitude,
		Status:      r.Status.String(),
		UserID:      r.UserID,
		UserName:    r.UserName,
		Photos:      r.Photos,
	}
	if !r.CreatedAt.IsZero() {
		dto.CreatedAt = r.CreatedAt.Format(time.RFC3339)
	}
	if !r.UpdatedAt.IsZero() {
		dto.UpdatedAt = r.UpdatedAt.Format(time.RFC3339)
	}
	return dto
}

func fromDTO(dto reportDTO) models.Report {
	r := models.Report{
		ID:          dto.ID,
		Title:       dto.Title,
		Description: dto.Description,
		Category:    models.ReportCategory(dto.Category),
		Location:    dto.Location,
		Latitude:    dto.Latitude,
		Longitude:   dto.Longitude,
		Status:      models.ReportStatus(dto.Status),
		UserID:      dto.UserID,
		UserName:    dto.UserName,
		Photos:      dto.Photos,
	}
	if r.Status == "" {
		r.Status = models.StatusPending
	}
	if t, err := time.Parse(time.RFC3339, dto.CreatedAt); err == nil {
		r.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339, dto.UpdatedAt); err == nil {
		r.UpdatedAt = t
	}
	return r
}
