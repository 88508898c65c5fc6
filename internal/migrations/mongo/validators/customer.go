package validators

import "go.mongodb.org/mongo-driver/bson"

var CustomerValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"name",
			"phone",
			"membership_level",
			"balance",
			"total_visits",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"name": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 100,
			},

			"phone": bson.M{
				"bsonType": "string",
				"pattern":  `^\+[1-9]\d{6,14}$`,
			},

			"membership_level": membershipEnum,
			"balance":          money,
			"total_deposit":    money,
			"total_spent":      money,

			"total_visits": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  0,
			},

			"vip_eligible": bson.M{"bsonType": "bool"},
			"vip_approved": bson.M{"bsonType": "bool"},

			"recent_visits": bson.M{
				"bsonType": "array",
				"maxItems": 10,
			},

			"recent_appointments": bson.M{
				"bsonType": "array",
				"maxItems": 10,
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
