package web

import (
	"fmt"
	"strings"
)

// mensajes fijos del contrato con el frontend
const (
	msgEmptyQuestion = "La pregunta no puede estar vacía si no se adjunta imagen."
	msgAuthFail      = "Error de autenticación con el servicio de IA. Por favor, verifica la configuración."
	msgConnFail      = "Error de conexión con el servicio de IA."
	msgGenericFail   = "Lo siento, ocurrió un error al procesar tu pregunta."
)

func msgPdfFail(name string) string {
	return fmt.Sprintf("Error al procesar el archivo PDF: %s.", name)
}

// classifyRunError maps a model call failure onto one of the fixed
// student facing sentences.
func classifyRunError(err error) string {
	up := strings.ToUpper(err.Error())
	if strings.Contains(up, "OPENAI_API_KEY") || strings.Contains(up, "AUTHENTICATION") {
		return msgAuthFail
	}
	if strings.Contains(up, "CONNECTION") {
		return msgConnFail
	}
	return msgGenericFail
}
