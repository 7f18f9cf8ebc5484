package server

// Server объединяет HTTP-серверы отдельных сущностей.
type Server struct {
	FeedServer
	DealServer
}

func NewServer(
	feedServer FeedServer,
	dealServer DealServer,
) Server {
	return Server{
		FeedServer: feedServer,
		DealServer: dealServer,
	}
}
