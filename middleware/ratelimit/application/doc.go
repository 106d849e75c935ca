// Package application contém os casos de uso (regras de aplicação) para o
// controle de admissão e o limite de concorrência.
//
// Ele depende apenas do pacote domain e não conhece net/http.
// Ex.: Service.Decide(ctx, key) retorna uma Decision (allow/deny, remaining,
// resetAt e retry-after).
package application
