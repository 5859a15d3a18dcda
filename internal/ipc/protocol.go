package ipc

type Request struct {
	Command string `json:"command"`
}

type Response struct {
	OK         bool    `json:"ok"`
	State      string  `json:"state,omitempty"`
	Message    string  `json:"message,omitempty"`
	Transcript string  `json:"transcript,omitempty"`
	Pending    string  `json:"pending,omitempty"`
	Confirmed  int     `json:"confirmed,omitempty"`
	Watermark  float64 `json:"watermark,omitempty"`
	Error      string  `json:"error,omitempty"`
}
