package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/capcea/bet-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// unlockLua borra la key solo si el valor es el token de quien la tomó.
const unlockLua = `
if redis.call('GET', KEYS[1]) == ARGV[1] then
    return redis.call('DEL', KEYS[1])
end
return 0
`

// RedisConfig son los parámetros de conexión a Redis.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string // prefijo de las keys, por defecto "evscanner:lock:"
}

// Redis es un Locker distribuido: SET NX con TTL y unlock condicional en Lua.
// Permite varias instancias del servicio contra la misma base de datos.
type Redis struct {
	rdb      *redis.Client
	prefix   string
	unlockSc *redis.Script
}

// NewRedis conecta y comprueba la conexión con PING.
func NewRedis(ctx context.Context, cfg RedisConfig) (*Redis, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("lock.NewRedis: ping %s: %w", cfg.Addr, err)
	}
	return newRedisWithClient(rdb, cfg.Prefix), nil
}

func newRedisWithClient(rdb *redis.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = "evscanner:lock:"
	}
	return &Redis{rdb: rdb, prefix: prefix, unlockSc: redis.NewScript(unlockLua)}
}

func (r *Redis) key(k string) string {
	return r.prefix + k
}

// Acquire toma el lock con el ttl dado. Devuelve domain.ErrLockHeld si otra
// ejecución lo tiene. unlock usa un contexto propio para liberar aunque el del
// llamador esté cancelado.
func (r *Redis) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	token := uuid.New().String()
	lk := r.key(key)

	ok, err := r.rdb.SetNX(ctx, lk, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("lock.Acquire %s: %w", key, err)
	}
	if !ok {
		return nil, domain.ErrLockHeld
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			unlockCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = r.unlockSc.Run(unlockCtx, r.rdb, []string{lk}, token).Err()
		})
	}, nil
}

// Close cierra la conexión.
func (r *Redis) Close() error {
	return r.rdb.Close()
}
