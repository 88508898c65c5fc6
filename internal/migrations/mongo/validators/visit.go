package validators

import "go.mongodb.org/mongo-driver/bson"

var VisitValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"customer_id",
			"service_id",
			"visit_date",
			"membership_type",
			"final_price",
			"payment_method",
			"payment_status",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"customer_id": objectIDString,
			"service_id":  objectIDString,
			"visit_date":  bson.M{"bsonType": "date"},

			"membership_type": membershipEnum,
			"original_price":  money,
			"final_price":     money,
			"extra_oil_fee":   money,

			"additional_service_price": money,

			"payment_method": bson.M{
				"bsonType": "string",
				"enum":     []string{"cash", "card", "deposit"},
			},

			"payment_status": paymentStatusEnum,
		},
	},
}
