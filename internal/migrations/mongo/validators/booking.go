package validators

import "go.mongodb.org/mongo-driver/bson"

var BookingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"customer_id",
			"customer_name",
			"service_id",
			"service_name",
			"booking_date",
			"duration",
			"membership_type",
			"price",
			"total_price",
			"status",
			"payment_status",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"customer_id":  objectIDString,
			"service_id":   objectIDString,
			"booking_date": bson.M{"bsonType": "date"},

			"customer_name": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 100,
			},

			"duration": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  1,
				"maximum":  600,
			},

			"membership_type": membershipEnum,
			"original_price":  money,
			"price":           money,
			"extra_oil_fee":   money,
			"total_price":     money,

			"additional_service_price": money,

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"pending",
					"confirmed",
					"completed",
				},
			},

			"payment_status": paymentStatusEnum,

			"payment_method": bson.M{
				"bsonType": "string",
				"enum":     []string{"cash", "card", "deposit"},
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
