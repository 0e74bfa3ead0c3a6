package lf

import "go.uber.org/zap"

const (
	FieldModule    = "module"
	FieldRequestID = "request_id"
	FieldUsername  = "username"
	FieldStudentID = "student_id"
	FieldRoll      = "roll"
	FieldPhoto     = "photo"
	FieldRank      = "rank"
	FieldTotal     = "total"
)

func Module(module string) zap.Field {
	return zap.String(FieldModule, module)
}

func RequestID(id string) zap.Field {
	return zap.String(FieldRequestID, id)
}

func Username(username string) zap.Field {
	return zap.String(FieldUsername, username)
}

func StudentID(ID uint) zap.Field {
	return zap.Uint(FieldStudentID, ID)
}

func Roll(roll int) zap.Field {
	return zap.Int(FieldRoll, roll)
}

func Photo(name string) zap.Field {
	return zap.String(FieldPhoto, name)
}

func Rank(rank int) zap.Field {
	return zap.Int(FieldRank, rank)
}

func Total(total int) zap.Field {
	return zap.Int(FieldTotal, total)
}
