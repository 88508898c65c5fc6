package validators

import "go.mongodb.org/mongo-driver/bson"

var (
	objectIDString = bson.M{
		"bsonType":  "string",
		"minLength": 24,
		"maxLength": 24,
	}

	money = bson.M{
		"bsonType": []string{"int", "long"},
		"minimum":  0,
	}

	membershipEnum = bson.M{
		"bsonType": "string",
		"enum":     []string{"regular", "vip"},
	}

	paymentStatusEnum = bson.M{
		"bsonType": "string",
		"enum":     []string{"unpaid", "paid"},
	}
)
