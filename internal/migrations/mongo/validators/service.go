package validators

import "go.mongodb.org/mongo-driver/bson"

var ServiceValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"code",
			"category",
			"name",
			"price",
			"duration",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"code": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 20,
			},

			"category": bson.M{
				"bsonType": "string",
				"enum":     []string{"bodyspa", "facialspa", "minispa", "pregnancyspa"},
			},

			"name": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 100,
			},

			"price":          money,
			"self_oil_price": money,

			"duration": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  1,
				"maximum":  600,
			},
		},
	},
}
