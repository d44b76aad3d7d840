package validators

import "go.mongodb.org/mongo-driver/bson"

var UserValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"name", "email", "phone_number", "role", "password", "bookings", "created_at"},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"name": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},

			"email": bson.M{
				"bsonType": "string",
				"pattern":  "^[^@\\s]+@[^@\\s]+$",
			},

			"phone_number": bson.M{
				"bsonType": "string",
				"pattern":  "^\\+[1-9]\\d{7,14}$",
			},

			"role": bson.M{
				"enum": []string{"USER", "ADMIN"},
			},

			"password": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"bookings": bookingRefs,

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
