package convert_test

import (
	"testing"
	"time"

	"github.com/bodegasur/trazavid/internal/domain/convert"
	"github.com/bodegasur/trazavid/internal/domain/entity"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestADecimal_FormatosDeString(t *testing.T) {
	casos := []struct {
		nombre   string
		entrada  string
		esperado string
	}{
		{"punto decimal", "123.45", "123.45"},
		{"coma decimal", "123,45", "123.45"},
		{"europeo con miles", "12.345,67", "12345.67"},
		{"europeo miles dobles", "1.234.567,89", "1234567.89"},
		{"entero", "1000", "1000"},
		{"con espacios", "  7,5  ", "7.5"},
	}
	for _, c := range casos {
		t.Run(c.nombre, func(t *testing.T) {
			esperado, err := decimal.NewFromString(c.esperado)
			require.NoError(t, err)
			assert.True(t, convert.ADecimal(c.entrada).Equal(esperado),
				"entrada %q: se obtuvo %s", c.entrada, convert.ADecimal(c.entrada))
		})
	}
}

func TestADecimal_NuncaFalla(t *testing.T) {
	assert.True(t, convert.ADecimal(nil).IsZero())
	assert.True(t, convert.ADecimal("").IsZero())
	assert.True(t, convert.ADecimal("no-numero").IsZero())
	assert.True(t, convert.ADecimal("1.2.3").IsZero())
	assert.True(t, convert.ADecimal(struct{}{}).IsZero())
}

func TestADecimal_TiposNumericos(t *testing.T) {
	assert.True(t, convert.ADecimal(float64(2.5)).Equal(decimal.NewFromFloat(2.5)))
	assert.True(t, convert.ADecimal(int64(42)).Equal(decimal.NewFromInt(42)))
	d := decimal.NewFromInt(7)
	assert.True(t, convert.ADecimal(d).Equal(d))
	assert.True(t, convert.ADecimal(&d).Equal(d))
	assert.True(t, convert.ADecimal((*decimal.Decimal)(nil)).IsZero())
}

func TestAEntero(t *testing.T) {
	require.NotNil(t, convert.AEntero("123"))
	assert.Equal(t, int64(123), *convert.AEntero("123"))
	assert.Equal(t, int64(-8), *convert.AEntero(" -8 "))
	assert.Equal(t, int64(9), *convert.AEntero(int64(9)))
	assert.Equal(t, int64(3), *convert.AEntero(3.9)) // trunca, no redondea
	assert.Equal(t, int64(15), *convert.AEntero(decimal.NewFromFloat(15.0)))

	// Strings con parte decimal son dato sucio, no enteros.
	assert.Nil(t, convert.AEntero("123.0"))
	assert.Nil(t, convert.AEntero("1,5"))
	assert.Nil(t, convert.AEntero("abc"))
	assert.Nil(t, convert.AEntero(""))
	assert.Nil(t, convert.AEntero(nil))
}

func TestAFechaISO(t *testing.T) {
	f := time.Date(2025, 3, 15, 10, 30, 0, 0, time.UTC)
	require.NotNil(t, convert.AFechaISO(f))
	assert.Equal(t, "2025-03-15T10:30:00Z", *convert.AFechaISO(f))
	assert.Equal(t, "2025-03-15T10:30:00Z", *convert.AFechaISO(&f))

	// Los strings se devuelven tal cual (ya son textuales).
	assert.Equal(t, "2025-01-01", *convert.AFechaISO("2025-01-01"))

	assert.Nil(t, convert.AFechaISO(nil))
	assert.Nil(t, convert.AFechaISO((*time.Time)(nil)))
	assert.Nil(t, convert.AFechaISO(12345))
}

func TestAFechaISO_ZonasNoUTC(t *testing.T) {
	loc := time.FixedZone("ART", -3*3600)
	f := time.Date(2025, 3, 15, 21, 0, 0, 0, loc)
	assert.Equal(t, "2025-03-16T00:00:00Z", *convert.AFechaISO(f))
}

func TestTipoLegible(t *testing.T) {
	c := func(n int64) *int64 { return &n }
	assert.Equal(t, "Compra", convert.TipoLegible(c(13)))
	assert.Equal(t, "Descube", convert.TipoLegible(c(28)))
	assert.Equal(t, "Ajuste", convert.TipoLegible(c(31)))
	assert.Equal(t, "Ajuste", convert.TipoLegible(c(95)))
	assert.Equal(t, "Transformación", convert.TipoLegible(c(43)))
	assert.Equal(t, "Transformación", convert.TipoLegible(c(30)))
	assert.Equal(t, "Transformación", convert.TipoLegible(c(46)))
	assert.Equal(t, "Movimiento", convert.TipoLegible(c(999)))
	assert.Equal(t, "Movimiento", convert.TipoLegible(nil))
}

func TestOrigenTransformacion(t *testing.T) {
	assert.Equal(t, entity.OrigenMezcla, convert.OrigenTransformacion(43))
	assert.Equal(t, entity.OrigenReclasificacion, convert.OrigenTransformacion(30))
	assert.Equal(t, entity.OrigenBorras, convert.OrigenTransformacion(46))
	assert.Equal(t, entity.OrigenTransformacion, convert.OrigenTransformacion(77))
}
