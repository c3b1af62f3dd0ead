package telegram

const (
	internalErrMsg = "something went wrong..."
	notReadyMsg    = "⏳ stock data is still loading, try again in a minute"
)
