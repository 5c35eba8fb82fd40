package sqlinline

const QSelectCampaignArtifact = `--sql 80911d6c-6162-453c-b524-e4ab96768c96
select
  id::text,
  owner_id,
  job_id::text,
  campaign_type,
  subject_line,
  preview_text,
  layout_description,
  rendered_markup,
  images_used,
  intent_json,
  copy_json,
  tokens_used,
  cost_estimate::float8,
  model_used,
  generation_time_ms,
  warnings,
  coalesce(storage_key, ''),
  status,
  created_at
from campaign_artifacts
where owner_id = $1::text and id = $2::uuid
limit 1;
`

// QListCampaignArtifacts leaves out the heavy markup and layout columns.
const QListCampaignArtifacts = `--sql 06e02fa7-0349-48de-99df-f5c45f554d41
select
  id::text,
  owner_id,
  job_id::text,
  campaign_type,
  subject_line,
  preview_text,
  images_used,
  tokens_used,
  cost_estimate::float8,
  model_used,
  generation_time_ms,
  warnings,
  coalesce(storage_key, ''),
  status,
  created_at
from campaign_artifacts
where owner_id = $1::text
  and ($2::text = '' or status = $2::text)
  and ($3::text = '' or campaign_type = $3::text)
order by created_at desc
limit $4::int offset $5::int;
`
