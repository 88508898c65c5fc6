//go:build integration

package ledger

import (
	"fmt"
	"net/http"
	"testing"

	mongotx "spadesk/pkg/db/mongo"
	"spadesk/pkg/model"
	"spadesk/test/integration/testutil"

	"go.mongodb.org/mongo-driver/bson"
)

func TestDepositVisitRefund(t *testing.T) {
	env := testutil.NewTestEnv()
	mongo, client := env.Setup(t)
	defer env.Cleanup(t, mongo)

	serviceID := mongo.SeedService(t, model.Service{
		Code:     "B05",
		Category: "bodyspa",
		Name:     "極致放鬆全身釋壓",
		Price:    2200,
		Duration: 90,
	})

	resp := client.POST(t, "/api/v1/customers", map[string]any{
		"name":  "林小姐",
		"phone": "0912345678",
	})
	testutil.AssertStatusCode(t, resp, http.StatusCreated)
	var customer model.Customer
	resp.DecodeData(t, &customer)

	base := fmt.Sprintf("/api/v1/customers/id/%s", customer.ID)

	resp = client.POST(t, base+"/deposits", model.DepositRequest{Amount: 5000, BonusAmount: 500, PaymentMethod: model.PaymentCash})
	testutil.AssertStatusCode(t, resp, http.StatusCreated)
	var deposit model.DepositRecord
	resp.DecodeData(t, &deposit)
	if deposit.NewBalance != 5500 {
		t.Fatalf("expected balance 5500 after deposit, got %d", deposit.NewBalance)
	}

	resp = client.POST(t, "/api/v1/visits", model.VisitRequest{
		CustomerID:    customer.ID,
		ServiceID:     serviceID,
		PaymentMethod: model.PaymentDeposit,
	})
	testutil.AssertStatusCode(t, resp, http.StatusCreated)
	var visit model.Visit
	resp.DecodeData(t, &visit)
	if visit.FinalPrice != 2200 {
		t.Fatalf("expected regular price 2200, got %d", visit.FinalPrice)
	}

	resp = client.GET(t, base)
	testutil.AssertStatusCode(t, resp, http.StatusOK)
	resp.DecodeData(t, &customer)
	if customer.Balance != 3300 {
		t.Fatalf("expected balance 3300 after visit, got %d", customer.Balance)
	}
	if customer.TotalVisits != 1 {
		t.Fatalf("expected 1 visit on customer, got %d", customer.TotalVisits)
	}

	resp = client.DELETE(t, "/api/v1/visits/id/"+visit.ID)
	testutil.AssertStatusCode(t, resp, http.StatusNoContent)

	resp = client.GET(t, base+"/reconcile")
	testutil.AssertStatusCode(t, resp, http.StatusOK)
	var rec model.Reconciliation
	resp.DecodeData(t, &rec)
	if !rec.Consistent || rec.Actual != 5500 {
		t.Fatalf("expected consistent balance 5500 after refund, got %+v", rec)
	}

	if n := mongo.CountDocuments(t, mongotx.UsageCollection, bson.M{"reversed": true}); n != 1 {
		t.Fatalf("expected 1 reversed usage record, got %d", n)
	}
}

func TestVisitRejectedOnInsufficientBalance(t *testing.T) {
	env := testutil.NewTestEnv()
	mongo, client := env.Setup(t)
	defer env.Cleanup(t, mongo)

	serviceID := mongo.SeedService(t, model.Service{
		Code:     "B06",
		Category: "bodyspa",
		Name:     "芳香艾灸",
		Price:    2600,
		Duration: 90,
	})

	resp := client.POST(t, "/api/v1/customers", map[string]any{
		"name":  "陳先生",
		"phone": "0922333444",
	})
	testutil.AssertStatusCode(t, resp, http.StatusCreated)
	var customer model.Customer
	resp.DecodeData(t, &customer)

	resp = client.POST(t, "/api/v1/visits", model.VisitRequest{
		CustomerID:    customer.ID,
		ServiceID:     serviceID,
		PaymentMethod: model.PaymentDeposit,
	})
	testutil.AssertStatusCode(t, resp, http.StatusConflict)
	if code := resp.ErrorCode(t); code != "INSUFFICIENT_BALANCE" {
		t.Fatalf("expected INSUFFICIENT_BALANCE, got %s", code)
	}

	if n := mongo.CountDocuments(t, mongotx.VisitsCollection, nil); n != 0 {
		t.Fatalf("expected no visit to be stored, got %d", n)
	}
}
