package recipecostrpc

import (
	"context"
	"database/sql"
	"recipecost"
	recipecostmsgpack "recipecost/msgpack"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"
)

const (
	FuncGetConversionFactor   = "GetConversionFactor"
	FuncSeedConversions       = "SeedConversions"
	FuncCostDish              = "CostDish"
	FuncRecordIngredientPrice = "RecordIngredientPrice"
)

var ServerFuncs = []string{
	FuncGetConversionFactor,
	FuncSeedConversions,
	FuncCostDish,
	FuncRecordIngredientPrice,
}

// CostDishRequest asks for a dish cost; a non-zero AtMs costs it with the
// prices in effect at that unix millisecond.
type CostDishRequest struct {
	RestaurantUUID string `msgpack:"restaurant_uuid"`
	DishUUID       string `msgpack:"dish_uuid"`
	AtMs           int64  `msgpack:"at,omitempty"`
}

type ServerProcessor struct {
	DB     *sql.DB
	Logger *zap.Logger
}

func NewServerProcessor(db *sql.DB, logger *zap.Logger) *ServerProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ServerProcessor{DB: db, Logger: logger}
}

func StrsContains(strs []string, searchVal string) bool {
	for i := range strs {
		if strs[i] == searchVal {
			return true
		}
	}
	return false
}

func (p *ServerProcessor) ProcessPkt(ctx context.Context, pkt *Packet) *Packet {
	reqUUID := pkt.UUID()

	// layer 0, check func
	funcStr := pkt.Function()
	if funcStr == "" {
		return CreateRespPkt(reqUUID, CodeNoFunc, nil, ErrReqHasNoFunc.Error())
	}
	if !StrsContains(ServerFuncs, funcStr) {
		return CreateRespPkt(reqUUID, CodeNoSuchFunc, nil, ErrNoSuchFunc.Error()+": "+funcStr)
	}

	// layer 1, check arg
	argBytes, argOk := pkt.B[BodyArg]
	if !argOk || len(argBytes) == 0 {
		return CreateRespPkt(reqUUID, CodeNoArg, nil, ErrReqHasNoArg.Error())
	}

	log := p.Logger.With(zap.String("function", funcStr), zap.Stringer("packet", reqUUID))
	payload := map[string][]byte{}
	var result any
	var resultKey string

	switch funcStr {
	case FuncGetConversionFactor:
		var edge recipecostmsgpack.ConversionEdge
		if err := msgpack.Unmarshal(argBytes, &edge); err != nil {
			return CreateRespPktErrUnmarshal(reqUUID, err)
		}
		factor, err := recipecost.GetConversionFactor(ctx, p.DB, edge.FromUnit, edge.ToUnit)
		if err != nil {
			return p.execFailed(log, reqUUID, err)
		}
		resultKey, result = "factor", factor
	case FuncSeedConversions:
		var edges []recipecostmsgpack.ConversionEdge
		if err := msgpack.Unmarshal(argBytes, &edges); err != nil {
			return CreateRespPktErrUnmarshal(reqUUID, err)
		}
		report, err := recipecost.SeedConversions(ctx, p.DB, recipecostmsgpack.ToUnitConversions(edges))
		if err != nil {
			return p.execFailed(log, reqUUID, err)
		}
		resultKey, result = "report", recipecostmsgpack.NewSeedReport(report)
	case FuncCostDish:
		var req CostDishRequest
		if err := msgpack.Unmarshal(argBytes, &req); err != nil {
			return CreateRespPktErrUnmarshal(reqUUID, err)
		}
		restaurantID, dishID, err := parseUUIDPair(req.RestaurantUUID, req.DishUUID)
		if err != nil {
			return CreateRespPktErrUnmarshal(reqUUID, err)
		}
		var dc recipecost.DishCost
		if req.AtMs != 0 {
			dc, err = recipecost.CostDishAt(ctx, p.DB, restaurantID, dishID, time.UnixMilli(req.AtMs))
		} else {
			dc, err = recipecost.CostDish(ctx, p.DB, restaurantID, dishID)
		}
		if err != nil {
			return p.execFailed(log, reqUUID, err)
		}
		resultKey, result = "cost", recipecostmsgpack.NewDishCost(dc)
	case FuncRecordIngredientPrice:
		var change recipecostmsgpack.PriceChange
		if err := msgpack.Unmarshal(argBytes, &change); err != nil {
			return CreateRespPktErrUnmarshal(reqUUID, err)
		}
		restaurantID, ingredientID, err := parseUUIDPair(change.RestaurantUUID, change.IngredientUUID)
		if err != nil {
			return CreateRespPktErrUnmarshal(reqUUID, err)
		}
		entry, err := recipecost.RecordIngredientPrice(ctx, p.DB, restaurantID, ingredientID, recipecost.Cents(change.CostPerUnit), change.Note)
		if err != nil {
			return p.execFailed(log, reqUUID, err)
		}
		resultKey, result = "entry", recipecostmsgpack.NewPriceHistoryEntry(entry)
	}

	resultBytes, err := msgpack.Marshal(result)
	if err != nil {
		return p.execFailed(log, reqUUID, err)
	}
	payload[resultKey] = resultBytes
	log.Debug("request processed")
	return CreateRespPkt(reqUUID, CodeOK, payload, "ok")
}

func (p *ServerProcessor) execFailed(log *zap.Logger, reqUUID uuid.UUID, err error) *Packet {
	code := codeForError(err)
	if code == CodeExecFunc {
		log.Error("request failed", zap.Error(err))
	} else {
		log.Info("request rejected", zap.Int32("code", code), zap.Error(err))
	}
	return CreateRespPkt(reqUUID, code, nil, err.Error())
}

func parseUUIDPair(a, b string) (uuid.UUID, uuid.UUID, error) {
	first, err := uuid.Parse(a)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	second, err := uuid.Parse(b)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return first, second, nil
}

func CreateRespPkt(reqUUID uuid.UUID, code int32, body map[string][]byte, message string) *Packet {
	if body == nil {
		body = map[string][]byte{}
	}
	return &Packet{
		H: map[string][]byte{
			HeaderUUID:    reqUUID[:],
			HeaderCode:    []byte(strconv.Itoa(int(code))),
			HeaderMessage: []byte(message),
		},
		B: body,
	}
}

func CreateRespPktErrUnmarshal(reqUUID uuid.UUID, err error) *Packet {
	return CreateRespPkt(reqUUID, CodeUnmarshal, nil, err.Error())
}

// ResponseError converts a failed response into a *RemoteError, or nil on success.
func ResponseError(resp *Packet) error {
	if code := resp.Code(); code != CodeOK {
		return &RemoteError{Code: code, Message: resp.Message()}
	}
	return nil
}
