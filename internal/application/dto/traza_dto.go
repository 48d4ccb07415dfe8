package dto

// Contrato JSON de la consulta de trazabilidad por lote. Los punteros son
// campos que pueden venir nulos en la respuesta.

type IdentificacionTraza struct {
	CLote          string  `json:"c_lote"`
	Producto       *string `json:"producto"`
	TanqueActual   *string `json:"tanque_actual"`
	FechaInicio    *string `json:"fecha_inicio"`
	FechaFin       *string `json:"fecha_fin"`
	OrigenConsulta string  `json:"origen_consulta"`
}

type KPIsTraza struct {
	LtsDestino          float64  `json:"lts_destino"`
	RendimientoFinalPct *float64 `json:"rendimiento_final_pct"`
	RendimientoUvaPct   *float64 `json:"rendimiento_uva_pct"`
	BrixIni             *float64 `json:"brix_ini"`
	DensidadIni         *float64 `json:"densidad_ini"`
}

type BalanceTraza struct {
	OK                 bool    `json:"ok"`
	Tolerancia         float64 `json:"tolerance"`
	LtsOrigenes        float64 `json:"lts_origenes"`
	LtsDestino         float64 `json:"lts_destino"`
	LtsBorra           float64 `json:"lts_borra"`
	LtsMerma           float64 `json:"lts_merma"`
	LtsOtrosUso        float64 `json:"lts_otros_uso"`
	AjusteLts          float64 `json:"ajuste_lts"`
	LtsDestinosFinales float64 `json:"lts_destinos_finales"`
}

// NodoOrigen es un nodo del árbol de orígenes: el nodo raíz sintético
// (nivel 0) o una arista de transferencia que entró al lote del nivel anterior.
type NodoOrigen struct {
	NodeID      string   `json:"node_id"`
	ParentID    *string  `json:"parent_id"`
	Nivel       int      `json:"nivel"`
	Tipo        string   `json:"tipo"`
	Fecha       *string  `json:"fecha"`
	OT          *int64   `json:"ot"`
	TkOrigen    *string  `json:"tk_origen"`
	TkDestino   *string  `json:"tk_destino"`
	LtsIn       *float64 `json:"lts_in"`
	LtsOut      *float64 `json:"lts_out"`
	MermaLts    *float64 `json:"merma_lts"`
	BorraLts    *float64 `json:"borra_lts"`
	OtrosUsoLts *float64 `json:"otros_uso_lts"`
	ContribPct  *float64 `json:"contrib_pct"`
	Guia        *string  `json:"guia"`
	Fel         *string  `json:"fel"`
	Observacion *string  `json:"observacion"`
	CLote       string   `json:"c_lote"`
	CLoteOrigen *string  `json:"c_lote_origen"`
}

type EventoTimeline struct {
	Fecha     string  `json:"fecha"`
	Evento    string  `json:"evento"`
	Detalle   string  `json:"detalle"`
	TkOrigen  *string `json:"tk_origen"`
	TkDestino *string `json:"tk_destino"`
	Cantidad  float64 `json:"cantidad"`
}

type RespuestaTraza struct {
	Identificacion IdentificacionTraza `json:"identificacion"`
	KPIs           KPIsTraza           `json:"kpis"`
	Balance        BalanceTraza        `json:"balance"`
	Origenes       []NodoOrigen        `json:"origenes"`
	Timeline       []EventoTimeline    `json:"timeline"`
}
