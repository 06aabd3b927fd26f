package validator

import (
	"github.com/Oudwins/zog"
)

var TickerShape = zog.Shape{
	"Ticker": zog.String().Min(1).Required(),
}

var DatacodeShape = zog.Shape{
	"Datacode": zog.String().Min(1).Required(),
}

var DateShape = zog.Shape{
	"Date": zog.String().Min(1).Required(),
}

var SourceShape = zog.Shape{
	"Source": zog.String().Min(1).Required(),
}

// RealtimeSchema validates the query parameters of a realtime quote call.
var RealtimeSchema = zog.Struct(TickerShape).
	Extend(DatacodeShape).
	Extend(SourceShape)

// HistoricSchema validates the query parameters of a historic quote call.
var HistoricSchema = zog.Struct(TickerShape).
	Extend(DatacodeShape).
	Extend(DateShape).
	Extend(SourceShape)
