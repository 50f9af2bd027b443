package email

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTemplates_Render(t *testing.T) {
	tm, err := NewDefaultTemplateManager("")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"publication_status", "application_status"}, tm.TemplateNames())

	// 1. Публикация с причиной отклонения
	body, err := tm.Render("publication_status", TemplateData{
		"Title":  "Práctica en geología",
		"Status": "Rechazada",
		"Reason": "Falta remuneración",
	})
	require.NoError(t, err)
	assert.Contains(t, body, "Práctica en geología")
	assert.Contains(t, body, "Motivo: Falta remuneración")

	// 2. Без причины блок не выводится
	body, err = tm.Render("publication_status", TemplateData{"Title": "Venta de libros", "Status": "Publicada"})
	require.NoError(t, err)
	assert.NotContains(t, body, "Motivo")

	// 3. Экранирование HTML
	body, err = tm.Render("application_status", TemplateData{
		"OfferName":   "<script>x</script>",
		"CompanyName": "Minera Norte",
		"Status":      "Aceptada",
	})
	require.NoError(t, err)
	assert.NotContains(t, body, "<script>")
	assert.Contains(t, body, "Minera Norte")

	_, err = tm.Render("missing", nil)
	assert.Error(t, err)
}

func TestTemplatesDir_Overrides(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "publication_status.html"), []byte("custom {{.Title}}"), 0o600))

	tm, err := NewDefaultTemplateManager(dir)
	require.NoError(t, err)

	body, err := tm.Render("publication_status", TemplateData{"Title": "Oferta"})
	require.NoError(t, err)
	assert.Equal(t, "custom Oferta", body)
}

func TestNewProvider_FallsBackToLog(t *testing.T) {
	tm, err := NewDefaultTemplateManager("")
	require.NoError(t, err)

	provider := NewProvider(DefaultConfig(), tm)
	_, isSMTP := provider.(*SMTPProvider)
	assert.True(t, isSMTP)

	cfg := DefaultConfig()
	cfg.Host = ""
	provider = NewProvider(cfg, tm)
	require.IsType(t, &LogProvider{}, provider)
	assert.NoError(t, provider.SendTemplate(context.Background(), []string{"a@ucn.cl"}, "Hola", "publication_status", TemplateData{"Title": "x"}))
}
