package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/bodegasur/trazavid/pkg/logger"
)

// ChunkSizeDefecto techo de claves por consulta IN cuando no se configura otro.
const ChunkSizeDefecto = 999

// consultarEnChunks ejecuta una consulta parametrizada con `= ANY($1)` una vez
// por cada grupo de a lo sumo chunkSize claves (deduplicadas, orden de primera
// aparición) y llama porFila por cada fila devuelta.
//
// Con el set de claves vacío se ejecuta una sonda con el array vacío: valida
// la forma de la consulta contra el esquema sin traer filas, y su fallo sí es
// fatal. El fallo de un chunk individual en cambio se loguea y se salta, para
// que un grupo podrido no tire abajo toda la extracción.
func consultarEnChunks(
	ctx context.Context,
	q Querier,
	log *logger.Logger,
	sql string,
	claves []int64,
	chunkSize int,
	porFila func(pgx.Rows) error,
) error {
	if chunkSize < 1 {
		chunkSize = ChunkSizeDefecto
	}
	grupos := partir(deduplicar(claves), chunkSize)
	sonda := len(grupos) == 0
	if sonda {
		grupos = [][]int64{{}}
	}

	for _, grupo := range grupos {
		rows, err := q.Query(ctx, sql, grupo)
		if err != nil {
			if sonda {
				return err
			}
			log.Warn().Err(err).Int("claves", len(grupo)).Msg("falló un chunk de la consulta; se salta")
			continue
		}
		if err := recorrer(rows, porFila); err != nil {
			if e, ok := err.(errorDeScan); ok {
				return e.error
			}
			log.Warn().Err(err).Int("claves", len(grupo)).Msg("falló la lectura de un chunk; se salta")
		}
	}
	return nil
}

// recorrer consume las filas llamando porFila; cierra siempre.
func recorrer(rows pgx.Rows, porFila func(pgx.Rows) error) error {
	defer rows.Close()
	for rows.Next() {
		if err := porFila(rows); err != nil {
			return errorDeScan{err}
		}
	}
	return rows.Err()
}

// errorDeScan distingue un fallo del callback (bug de mapeo, fatal) de un
// fallo de red del chunk (se salta).
type errorDeScan struct{ error }

// deduplicar quita claves repetidas preservando el orden de primera aparición.
func deduplicar(claves []int64) []int64 {
	vistas := make(map[int64]struct{}, len(claves))
	out := make([]int64, 0, len(claves))
	for _, c := range claves {
		if _, ok := vistas[c]; ok {
			continue
		}
		vistas[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

// partir corta las claves en grupos de a lo sumo n. n < 1 devuelve un solo grupo.
func partir(claves []int64, n int) [][]int64 {
	if len(claves) == 0 {
		return nil
	}
	if n < 1 {
		return [][]int64{claves}
	}
	var grupos [][]int64
	for i := 0; i < len(claves); i += n {
		fin := i + n
		if fin > len(claves) {
			fin = len(claves)
		}
		grupos = append(grupos, claves[i:fin])
	}
	return grupos
}
