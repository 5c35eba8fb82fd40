package sqlinline

const QInsertUsageLog = `--sql a1fb207e-a22c-480a-861f-2b2b28238286
insert into usage_logs(id, owner_id, action, tokens_used, cost, metadata, created_at)
values (gen_random_uuid(), $1::text, $2::text, $3::int, $4::numeric, coalesce($5::jsonb, '{}'::jsonb), now());
`
