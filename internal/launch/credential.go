package launch

import (
	"fmt"
	"os"
	"strings"

	"github.com/shaiso/Lanekeeper/internal/domain"
)

// ReadCredential читает секрет из файла-референса.
//
// Значение читается ровно один раз за launch и живёт только в памяти
// процесса: оно прикрепляется к submissions, но не персистится и не
// логируется — в логи попадает только плейсхолдер.
func ReadCredential(ref string) (domain.Secret, error) {
	data, err := os.ReadFile(ref)
	if err != nil {
		return domain.Secret{}, fmt.Errorf("read credential: %w", err)
	}

	value := strings.TrimSpace(string(data))
	if value == "" {
		return domain.Secret{}, fmt.Errorf("%w: %s", ErrEmptyCredential, ref)
	}
	return domain.NewSecret(value), nil
}
