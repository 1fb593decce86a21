package validators

import "go.mongodb.org/mongo-driver/bson"

var ActivityValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"schedule_id",
			"event_type",
			"actor",
			"occurred_at",
			"recorded_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"schedule_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"event_type": bson.M{
				"bsonType": "string",
				"enum":     []string{"schedule.created", "availability.toggled"},
			},

			"actor": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 50,
			},

			"slot_key": bson.M{
				"bsonType": "string",
				"pattern":  "^\\d{4}-\\d{2}-\\d{2}_([01][0-9]|2[0-3]):[0-5][0-9]$",
			},

			"available": bson.M{
				"bsonType": "bool",
			},

			"occurred_at": bson.M{
				"bsonType": "date",
			},

			"recorded_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
