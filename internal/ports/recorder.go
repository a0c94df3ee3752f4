package ports

type Recorder interface {
	Attempt(op string, err error)
	Reresolution(err error)
	Resolution(outcome string)
	Delivery(outcome string)
}

type NopRecorder struct{}

func (NopRecorder) Attempt(string, error) {}
func (NopRecorder) Reresolution(error)    {}
func (NopRecorder) Resolution(string)     {}
func (NopRecorder) Delivery(string)       {}
