package domain

func ConnectRecord(username string) Record {
	return NewRecord(map[string]string{
		FieldAction:   actionConnect,
		FieldUsername: username,
	})
}

func LeaveRecord(username string) Record {
	return NewRecord(map[string]string{
		FieldAction:   actionLeaving,
		FieldUsername: username,
	})
}

func MessageRecord(username, message string) Record {
	return NewRecord(map[string]string{
		FieldAction:   actionMessage,
		FieldUsername: username,
		FieldMessage:  message,
	})
}

func ConnectPattern() Pattern {
	return NewPattern(map[string]string{
		FieldAction:   "(?i)connect",
		FieldUsername: ".*",
	})
}

func LeavePattern() Pattern {
	return NewPattern(map[string]string{
		FieldAction:   "(?i)leaving",
		FieldUsername: ".*",
	})
}

func MessagePattern() Pattern {
	return NewPattern(map[string]string{
		FieldAction:   "(?i)msg",
		FieldUsername: ".*",
		FieldMessage:  ".*",
	})
}

// AnyActionPattern is the single subscription a chat session listens on.
func AnyActionPattern() Pattern {
	return NewPattern(map[string]string{
		FieldAction:   "(?i)leaving|connect|msg",
		FieldUsername: ".*",
	})
}
