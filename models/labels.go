package models

// StatusBadgeClass maps a ReportStatus to a CSS badge class
func StatusBadgeClass(status ReportStatus) string {
	switch status {
	case StatusPending:
		return "badge-warning"
	case StatusInProgress:
		return "badge-info"
	case StatusResolved:
		return "badge-success"
	case StatusClosed:
		return "badge-secondary"
	default:
		return "badge-secondary"
	}
}

// CategoryIcon returns an emoji icon for a ReportCategory
func CategoryIcon(category ReportCategory) string {
	switch category {
	case CategoryInfrastructure:
		return "🛠️"
	case CategorySecurity:
		return "🚨"
	case CategoryEnvironment:
		return "🌿"
	case CategoryTransport:
		return "🚧"
	default:
		return "📌"
	}
}

// CategoryLabel returns a human-readable label for a ReportCategory
func CategoryLabel(category ReportCategory) string {
	switch category {
	case CategoryInfrastructure:
		return "Infraestructura vial"
	case CategorySecurity:
		return "Seguridad vial"
	case CategoryEnvironment:
		return "Evento ambiental"
	case CategoryTransport:
		return "Transporte y tránsito"
	default:
		return "Otro"
	}
}

// StatusLabel returns a human-readable label for a ReportStatus
func StatusLabel(status ReportStatus) string {
	switch status {
	case StatusPending:
		return "Pendiente"
	case StatusInProgress:
		return "En Progreso"
	case StatusResolved:
		return "Resuelto"
	case StatusClosed:
		return "Cerrado"
	default:
		return status.String()
	}
}

// PendingActionLabel returns a human-readable label for a queued offline action
func PendingActionLabel(action QueuedActionType) string {
	switch action {
	case ActionCreate:
		return "Pendiente por enviar"
	case ActionUpdate:
		return "Actualización pendiente"
	case ActionDelete:
		return "Eliminación pendiente"
	default:
		return ""
	}
}
