package usecase

import "context"

type EmbeddingInfra interface {
	EmbedText(ctx context.Context, req *EmbedTextReq) ([]float32, error)
	GetCachedEmbedding(ctx context.Context, req *EmbedTextReq) ([]float32, error)
}

type ImagesInfra interface {
	// ResolveImage превращает ключ объекта в ссылку для клиента.
	ResolveImage(ctx context.Context, ref string) string
}

type EventPublisher interface {
	WriteMessage(ctx context.Context, req *WriteMessageReq) error
}
