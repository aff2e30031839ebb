package pedidos

import (
	"context"
	"fmt"

	"github.com/jhoicas/Rexus-api/internal/domain"
	"github.com/jhoicas/Rexus-api/internal/domain/entity"
	"github.com/jhoicas/Rexus-api/internal/domain/repository"
)

// PDFGenerator puerto de salida para la representación impresa de un pedido.
type PDFGenerator interface {
	GeneratePedidoPDF(ctx context.Context, p *entity.Pedido, historial []*entity.PedidoHistorial) ([]byte, error)
}

// PDFUseCase genera la orden de pedido en PDF.
type PDFUseCase struct {
	repo      repository.PedidoRepository
	generator PDFGenerator
}

// NewPDFUseCase construye el caso de uso.
func NewPDFUseCase(repo repository.PedidoRepository, generator PDFGenerator) *PDFUseCase {
	return &PDFUseCase{repo: repo, generator: generator}
}

// DescargarPDF devuelve los bytes del PDF y el nombre de archivo sugerido.
// Los pedidos en BORRADOR también se pueden imprimir; el documento lo indica en el estado.
func (uc *PDFUseCase) DescargarPDF(ctx context.Context, id int64) (pdfBytes []byte, filename string, err error) {
	p, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: obtener pedido: %w", err)
	}
	if p == nil {
		return nil, "", domain.ErrNotFound
	}
	historial, err := uc.repo.ListHistorial(ctx, id)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: obtener historial: %w", err)
	}

	pdfBytes, err = uc.generator.GeneratePedidoPDF(ctx, p, historial)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: generación fallida: %w", err)
	}
	return pdfBytes, fmt.Sprintf("pedido_%s.pdf", p.Numero), nil
}
