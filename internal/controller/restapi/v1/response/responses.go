package response

type Error struct {
	Message string `json:"message"`
}

type Message struct {
	Message string `json:"message"`
}
