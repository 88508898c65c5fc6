package pricing

import (
	"context"
	"spadesk/pkg/model"
	"time"
)

type ServiceLookup interface {
	GetByID(ctx context.Context, id string) (*model.Service, error)
}

type CustomerLookup interface {
	GetByID(ctx context.Context, id string) (*model.Customer, error)
}

type Request struct {
	CustomerID          string     `json:"customer_id"`
	ServiceID           string     `json:"service_id"`
	UseSelfOil          bool       `json:"use_self_oil"`
	ExtraOilFee         int64      `json:"extra_oil_fee"`
	AdditionalServiceID string     `json:"additional_service_id,omitempty"`
	At                  *time.Time `json:"at,omitempty"`
}

// Priced is a quote together with the records it was computed from.
type Priced struct {
	Quote    Quote          `json:"quote"`
	Customer *model.Customer `json:"-"`
	Service  *model.Service  `json:"-"`
	Addon    *model.Service  `json:"-"`
}

// Quoter resolves catalog and customer state before delegating to the Engine.
type Quoter struct {
	engine    *Engine
	services  ServiceLookup
	customers CustomerLookup
}

func NewQuoter(engine *Engine, services ServiceLookup, customers CustomerLookup) *Quoter {
	return &Quoter{
		engine:    engine,
		services:  services,
		customers: customers,
	}
}

// Price looks up the customer, service and optional add-on and quotes them
// at req.At, or now when unset. Lookup errors are returned unchanged.
func (q *Quoter) Price(ctx context.Context, req Request) (*Priced, error) {
	customer, err := q.customers.GetByID(ctx, req.CustomerID)
	if err != nil {
		return nil, err
	}

	service, err := q.services.GetByID(ctx, req.ServiceID)
	if err != nil {
		return nil, err
	}

	var addon *model.Service
	if req.AdditionalServiceID != "" {
		addon, err = q.services.GetByID(ctx, req.AdditionalServiceID)
		if err != nil {
			return nil, err
		}
	}

	at := time.Now().UTC()
	if req.At != nil {
		at = *req.At
	}

	return &Priced{
		Quote:    q.engine.Quote(InputFor(customer, service, addon, at, req.UseSelfOil, req.ExtraOilFee)),
		Customer: customer,
		Service:  service,
		Addon:    addon,
	}, nil
}

func InputFor(customer *model.Customer, service, addon *model.Service, at time.Time, useSelfOil bool, extraOilFee int64) Input {
	in := Input{
		BasePrice:    service.Price,
		SelfOilPrice: service.SelfOilPrice,
		Membership:   customer.MembershipAt(at),
		UseSelfOil:   useSelfOil,
		ExtraOilFee:  extraOilFee,
	}
	if addon != nil {
		in.AddonPrice = addon.Price
	}
	return in
}
