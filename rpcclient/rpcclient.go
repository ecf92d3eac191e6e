package rpcclient

import (
	"context"
	"errors"
	"net"
	"recipecost"
	recipecostmsgpack "recipecost/msgpack"
	recipecostrpc "recipecost/rpc"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Client issues one request at a time over a single connection.
type Client struct {
	mutex   sync.Mutex
	conn    net.Conn
	buf     recipecostrpc.PacketBuffer
	pending []*recipecostrpc.Packet
}

func Dial(ctx context.Context, addr string) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	return NewClient(conn), nil
}

func NewClient(conn net.Conn) *Client {
	return &Client{conn: conn}
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// Call sends req and waits for the response carrying the same packet UUID.
func (c *Client) Call(ctx context.Context, req *recipecostrpc.Packet) (*recipecostrpc.Packet, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	// zero deadline clears any previous one
	deadline, _ := ctx.Deadline()
	if err := c.conn.SetDeadline(deadline); err != nil {
		return nil, err
	}
	// cancellation unblocks a pending Read or Write
	stop := context.AfterFunc(ctx, func() { c.conn.SetDeadline(time.Unix(1, 0)) })
	defer stop()

	data, err := recipecostrpc.EncodePacket(req)
	if err != nil {
		return nil, err
	}
	if _, err := c.conn.Write(data); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}

	want := req.UUID()
	readBuf := make([]byte, 4096)
	for {
		for len(c.pending) > 0 {
			pkt := c.pending[0]
			c.pending = c.pending[1:]
			if pkt.UUID() == want {
				return pkt, nil
			}
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := c.conn.Read(readBuf)
		if n > 0 {
			pkts, feedErr := c.buf.Feed(readBuf[:n])
			c.pending = append(c.pending, pkts...)
			if feedErr != nil {
				return nil, feedErr
			}
		}
		if err != nil && len(c.pending) == 0 {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, err
		}
	}
}

func (c *Client) call(ctx context.Context, function string, arg any, resultKey string, result any) error {
	req, err := recipecostrpc.NewRequest(function, arg)
	if err != nil {
		return err
	}
	resp, err := c.Call(ctx, req)
	if err != nil {
		return err
	}
	if err := recipecostrpc.ResponseError(resp); err != nil {
		return err
	}
	return resp.DecodeBody(resultKey, result)
}

func (c *Client) GetConversionFactor(ctx context.Context, fromUnit, toUnit string) (float64, error) {
	var factor float64
	err := c.call(ctx, recipecostrpc.FuncGetConversionFactor,
		recipecostmsgpack.ConversionEdge{FromUnit: fromUnit, ToUnit: toUnit}, "factor", &factor)
	return factor, err
}

func (c *Client) SeedConversions(ctx context.Context, convs []recipecost.UnitConversion) (recipecostmsgpack.SeedReport, error) {
	edges := make([]recipecostmsgpack.ConversionEdge, 0, len(convs))
	for _, conv := range convs {
		edges = append(edges, recipecostmsgpack.NewConversionEdge(conv))
	}
	var report recipecostmsgpack.SeedReport
	err := c.call(ctx, recipecostrpc.FuncSeedConversions, edges, "report", &report)
	return report, err
}

func (c *Client) CostDish(ctx context.Context, restaurantID, dishID uuid.UUID) (recipecost.DishCost, error) {
	return c.costDish(ctx, recipecostrpc.CostDishRequest{
		RestaurantUUID: restaurantID.String(),
		DishUUID:       dishID.String(),
	})
}

func (c *Client) CostDishAt(ctx context.Context, restaurantID, dishID uuid.UUID, at time.Time) (recipecost.DishCost, error) {
	if at.IsZero() {
		return recipecost.DishCost{}, errors.New("zero time")
	}
	return c.costDish(ctx, recipecostrpc.CostDishRequest{
		RestaurantUUID: restaurantID.String(),
		DishUUID:       dishID.String(),
		AtMs:           at.UnixMilli(),
	})
}

func (c *Client) costDish(ctx context.Context, req recipecostrpc.CostDishRequest) (recipecost.DishCost, error) {
	var wire recipecostmsgpack.DishCost
	if err := c.call(ctx, recipecostrpc.FuncCostDish, req, "cost", &wire); err != nil {
		return recipecost.DishCost{}, err
	}
	return recipecostmsgpack.ToDishCost(&wire)
}

func (c *Client) RecordIngredientPrice(ctx context.Context, restaurantID, ingredientID uuid.UUID, cost recipecost.Cents, note string) (*recipecost.PriceHistoryEntry, error) {
	var wire recipecostmsgpack.PriceHistoryEntry
	err := c.call(ctx, recipecostrpc.FuncRecordIngredientPrice, recipecostmsgpack.PriceChange{
		RestaurantUUID: restaurantID.String(),
		IngredientUUID: ingredientID.String(),
		CostPerUnit:    int64(cost),
		Note:           note,
	}, "entry", &wire)
	if err != nil {
		return nil, err
	}
	return recipecostmsgpack.ToPriceHistoryEntry(&wire)
}
