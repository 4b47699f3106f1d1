package game

// Question is one entry of the image-question pool used by the quiz gate.
// The content is opaque configuration; only the id matters to the engine.
// Answers are judged by a human arbiter (the room host), never by the server.
type Question struct {
	ID       string `json:"id"`
	Prompt   string `json:"prompt"`
	ImageURL string `json:"imageUrl"`
}

var questionPool = []Question{
	{"q1", "Which landmark is this?", "/img/questions/q1.jpg"},
	{"q2", "Name this dish.", "/img/questions/q2.jpg"},
	{"q3", "Which festival is shown?", "/img/questions/q3.jpg"},
	{"q4", "Which country uses this greeting?", "/img/questions/q4.jpg"},
	{"q5", "What is this garment called?", "/img/questions/q5.jpg"},
	{"q6", "Which city is this skyline?", "/img/questions/q6.jpg"},
	{"q7", "Name this instrument.", "/img/questions/q7.jpg"},
	{"q8", "Which sport is being played?", "/img/questions/q8.jpg"},
	{"q9", "What is this dessert?", "/img/questions/q9.jpg"},
	{"q10", "Which currency is shown?", "/img/questions/q10.jpg"},
	{"q11", "Name this mode of transport.", "/img/questions/q11.jpg"},
	{"q12", "Which dance is this?", "/img/questions/q12.jpg"},
}
