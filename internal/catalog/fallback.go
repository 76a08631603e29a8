package catalog

import (
	"slices"

	"github.com/xaulosky/travel-suites-app/internal/storage/models"
)

// Fallback returns the static property list served when WooCommerce is not
// configured or not reachable. The caller owns the returned slice.
func Fallback() []models.Property {
	props := slices.Clone(fallbackProperties)
	for i := range props {
		props[i].Amenities = slices.Clone(props[i].Amenities)
	}
	return props
}

var fallbackProperties = []models.Property{
	{
		ID:        "sao-205",
		Name:      "Depto 205 Olivo",
		Building:  "Santa Ana Oriente",
		Type:      "departamento",
		Address:   "Av. Costanera Quilque Norte 820",
		Rooms:     2,
		Beds:      "1 Matrimonial, 1 Single",
		Amenities: []string{"Estacionamiento", "Quincho", "Piscina"},
		Protocol:  "Conserjería +569 23768177. Recordar avisar ingreso al grupo de WhatsApp del edificio.",
		Status:    models.StatusAvailable,
	},
	{
		ID:        "sao-504",
		Name:      "Depto 504 Boldo",
		Building:  "Santa Ana Oriente",
		Type:      "departamento",
		Address:   "Av. Costanera Quilque Norte 820",
		Rooms:     3,
		Beds:      "1 King, 2 Singles",
		Amenities: []string{"Terraza", "Lavadora"},
		Protocol:  "Llave de paso de gas en logia. Conserjería estricta con ruidos molestos.",
		Status:    models.StatusOccupied,
	},
	{
		ID:        "lum-401",
		Name:      "Depto 401 A",
		Building:  "Luminity",
		Type:      "departamento",
		Address:   "Laguna Verde 2365",
		Rooms:     2,
		Beds:      "1 Matrimonial, 1 Camarote",
		Amenities: []string{"Gimnasio", "Sala Gourmet", "Lavandería"},
		Protocol:  "Conserjería +569 58041210. Ingreso con código QR o huella (gestionar antes).",
		Status:    models.StatusAvailable,
	},
	{
		ID:        "fre-709",
		Name:      "Studio 709",
		Building:  "Espacio Freire",
		Type:      "departamento",
		Address:   "Freire 360",
		Rooms:     1,
		Beds:      "1 Matrimonial",
		Amenities: []string{"Céntrico", "Cowork"},
		Protocol:  "Conserjería +562 32824044 (Solo llamadas). Dejar llaves en buzón al salir.",
		Status:    models.StatusMaintenance,
	},
	{
		ID:        "enc-pocuro",
		Name:      "Casa Pocuro",
		Building:  "Hacienda Los Encinos",
		Type:      "casa",
		Address:   "Totoral Norte 480",
		Rooms:     4,
		Beds:      "2 Matrimoniales, 3 Singles",
		Amenities: []string{"Patio Grande", "Parrilla"},
		Protocol:  "No aplica conserjería. Coordinar entrega de llaves presencial o caja fuerte.",
		Status:    models.StatusAvailable,
	},
	{
		ID:        "puc-304",
		Name:      "Depto 304 Pucón",
		Building:  "Parque Pucón",
		Type:      "departamento",
		Address:   "Variante camino internacional 1895",
		Rooms:     2,
		Beds:      "1 Queen, 1 Litera",
		Amenities: []string{"Piscina", "Vista Volcán"},
		Protocol:  "Conserjería +569 26161887. En invierno dejar calefacción en 18°C.",
		Status:    models.StatusAvailable,
	},
	{
		ID:        "chi-502",
		Name:      "Depto 502 Nuevo 18",
		Building:  "Edificio Nuevo 18",
		Type:      "departamento",
		Address:   "18 de Septiembre 140, Chillán",
		Rooms:     1,
		Beds:      "1 Matrimonial",
		Amenities: []string{"Céntrico"},
		Protocol:  "Conserjería +569 41395203. Estacionamiento estrecho, avisar a huéspedes con camionetas.",
		Status:    models.StatusAvailable,
	},
}
