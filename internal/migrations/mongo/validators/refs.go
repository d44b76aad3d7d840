package validators

import "go.mongodb.org/mongo-driver/bson"

// bookingRefs describes the booking summaries embedded in rooms and users.
var bookingRefs = bson.M{
	"bsonType": "array",
	"items": bson.M{
		"bsonType": "object",
		"required": []string{"id", "check_in", "check_out", "room_id", "user_id"},
		"properties": bson.M{
			"id":                bson.M{"bsonType": "string"},
			"check_in":          bson.M{"bsonType": "date"},
			"check_out":         bson.M{"bsonType": "date"},
			"confirmation_code": bson.M{"bsonType": "string"},
			"room_id":           bson.M{"bsonType": "string"},
			"user_id":           bson.M{"bsonType": "string"},
		},
	},
}
