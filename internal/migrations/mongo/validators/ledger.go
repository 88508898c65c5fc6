package validators

import "go.mongodb.org/mongo-driver/bson"

var DepositValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"customer_id",
			"amount",
			"total_amount",
			"payment_method",
			"receipt_number",
			"new_balance",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"customer_id":  objectIDString,
			"amount":       money,
			"bonus_amount": money,
			"total_amount": money,
			"new_balance":  money,

			"payment_method": bson.M{
				"bsonType": "string",
				"enum":     []string{"cash", "card"},
			},

			"receipt_number": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},
		},
	},
}

var UsageValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"customer_id",
			"visit_id",
			"amount",
			"balance_before",
			"balance_after",
			"reversed",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"customer_id":    objectIDString,
			"amount":         money,
			"balance_before": money,
			"balance_after":  money,
			"reversed":       bson.M{"bsonType": "bool"},
		},
	},
}

var VIPPurchaseValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"customer_id",
			"amount",
			"vip_start_date",
			"vip_end_date",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"customer_id":    objectIDString,
			"amount":         money,
			"balance_after":  money,
			"vip_start_date": bson.M{"bsonType": "date"},
			"vip_end_date":   bson.M{"bsonType": "date"},
		},
	},
}
