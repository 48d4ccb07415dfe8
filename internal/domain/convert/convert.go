// Package convert normaliza valores sucios de la fuente de movimientos:
// números con separador "." o ",", fechas en varios formatos y códigos de
// tipo de comprobante. Ninguna función lanza panic ni devuelve error; los
// pipelines por lotes dependen de esa garantía para no cortarse con datos
// sucios.
package convert

import (
	"strconv"
	"strings"
	"time"

	"github.com/bodegasur/trazavid/internal/domain/entity"
	"github.com/shopspring/decimal"
)

var tipoLegible = map[int64]string{
	entity.TipoCompra:          "Compra",
	entity.TipoDescube:         "Descube",
	entity.TipoAjuste:          "Ajuste",
	entity.TipoAjusteMasivo:    "Ajuste",
	entity.TipoMezcla:          "Transformación",
	entity.TipoReclasificacion: "Transformación",
	entity.TipoBorras:          "Transformación",
}

var origenTransformacion = map[int64]string{
	entity.TipoMezcla:          entity.OrigenMezcla,
	entity.TipoReclasificacion: entity.OrigenReclasificacion,
	entity.TipoBorras:          entity.OrigenBorras,
}

// ADecimal convierte con tolerancia: nil, numéricos, decimal y strings con
// separador "." o ",". Formato europeo "12.345,67" (una coma y al menos un
// punto) se interpreta como miles-con-punto. Cae en cero si no puede.
func ADecimal(v any) decimal.Decimal {
	switch x := v.(type) {
	case nil:
		return decimal.Zero
	case decimal.Decimal:
		return x
	case *decimal.Decimal:
		if x == nil {
			return decimal.Zero
		}
		return *x
	case float64:
		return decimal.NewFromFloat(x)
	case float32:
		return decimal.NewFromFloat32(x)
	case int:
		return decimal.NewFromInt(int64(x))
	case int32:
		return decimal.NewFromInt32(x)
	case int64:
		return decimal.NewFromInt(x)
	case string:
		return decimalDesdeString(x)
	default:
		return decimal.Zero
	}
}

func decimalDesdeString(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	comas := strings.Count(s, ",")
	puntos := strings.Count(s, ".")
	if comas == 1 && puntos >= 1 {
		// "12.345,67" -> "12345.67"
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	} else {
		s = strings.ReplaceAll(s, ",", ".")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// AEntero convierte a entero cuando es posible. Devuelve nil si no puede,
// incluidos strings con parte decimal ("123.0"): un identificador con
// decimales es dato sucio, no un entero.
func AEntero(v any) *int64 {
	switch x := v.(type) {
	case nil:
		return nil
	case int:
		n := int64(x)
		return &n
	case int32:
		n := int64(x)
		return &n
	case int64:
		return &x
	case *int64:
		return x
	case float64:
		n := int64(x)
		return &n
	case float32:
		n := int64(x)
		return &n
	case decimal.Decimal:
		n := x.IntPart()
		return &n
	case string:
		s := strings.TrimSpace(x)
		if s == "" || strings.ContainsAny(s, ".,") {
			return nil
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil
		}
		return &n
	default:
		return nil
	}
}

// AFechaISO devuelve ISO-8601 con sufijo Z. Acepta time.Time y string (el
// string se devuelve tal cual). nil -> nil.
func AFechaISO(v any) *string {
	switch x := v.(type) {
	case nil:
		return nil
	case time.Time:
		s := x.UTC().Format(time.RFC3339)
		return &s
	case *time.Time:
		if x == nil {
			return nil
		}
		s := x.UTC().Format(time.RFC3339)
		return &s
	case string:
		return &x
	default:
		return nil
	}
}

// TipoLegible mapea el código de tipo de comprobante a la etiqueta que ve el
// usuario en la traza. Códigos desconocidos (o nil) -> "Movimiento".
func TipoLegible(c *int64) string {
	if c == nil {
		return "Movimiento"
	}
	if t, ok := tipoLegible[*c]; ok {
		return t
	}
	return "Movimiento"
}

// OrigenTransformacion mapea el subtipo de una transformación a la columna
// origen de la tabla de hechos. Códigos no reconocidos -> "Transformacion".
func OrigenTransformacion(c int64) string {
	if o, ok := origenTransformacion[c]; ok {
		return o
	}
	return entity.OrigenTransformacion
}
