package email

// Имена встроенных шаблонов
const (
	TemplatePublicationStatus = "publication_status"
	TemplateApplicationStatus = "application_status"
)

// Email представляет структуру email сообщения
type Email struct {
	To       []string
	Cc       []string
	Subject  string
	Body     string
	HTMLBody string
}

// TemplateData представляет данные для шаблонов писем
type TemplateData map[string]interface{}
