// download.go — обработчик /api/v1/download/{token}.
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/arturkryukov/digistore/internal/api/errors"
)

// Download — GET /api/v1/download/{token}.
// Выдаёт файловые реквизиты товара по токену скачивания.
// Любое невыполненное условие — неизвестный токен, неподтверждённая
// оплата, товар без файла — даёт одинаковый 404, чтобы ответ не
// раскрывал, какая именно проверка не прошла.
func (h *APIHandler) Download(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	ref, err := h.links.Redeem(r.Context(), token)
	if err != nil {
		h.logger.Error("Ошибка скачивания по токену", "error", err)
		apierrors.InternalError(w, "Ошибка скачивания")
		return
	}
	if ref == nil {
		apierrors.NotFound(w, "Файл не найден")
		return
	}

	writeJSON(w, http.StatusOK, ref)
}
