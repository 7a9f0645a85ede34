// Package session хранит записи восстанавливаемой сессии чекаута.
//
// Записи переживают полный уход браузера на страницу платежного
// провайдера и возврат обратно. Запись делается строго до выдачи
// URL редиректа и удаляется ровно один раз при любом терминальном
// исходе (успех, ошибка, явная отмена), чтобы исключить
// восстановление устаревшего процесса при будущих визитах.
package session

import "context"

// Store интерфейс хранилища восстанавливаемой сессии.
// Записи скоупятся по пользователю: key -- имя записи,
// userID подмешивается реализацией.
type Store interface {
	// Save сериализует record в JSON и сохраняет под ключом key
	Save(ctx context.Context, userID, key string, record any) error

	// Load читает и десериализует запись в out. Возвращает false
	// для отсутствующей записи; поврежденный JSON трактуется как
	// отсутствие записи, а не как ошибка.
	Load(ctx context.Context, userID, key string, out any) (bool, error)

	// Clear удаляет запись. Отсутствие записи не является ошибкой.
	Clear(ctx context.Context, userID, key string) error
}

// storageKey собирает полный ключ записи
func storageKey(userID, key string) string {
	return "checkout_session:" + userID + ":" + key
}
