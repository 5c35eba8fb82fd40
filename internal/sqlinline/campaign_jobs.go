package sqlinline

const QInsertCampaignJob = `--sql 62f2e134-a98d-419e-9ea2-7844e1e39be4
insert into campaign_jobs(id, owner_id, job_type, status, progress, current_step, input_data, created_at, updated_at)
values ($1::uuid, $2::text, $3::text, 'pending', 0, $4::text, $5::jsonb, now(), now())
returning created_at;
`

const QSelectCampaignJob = `--sql c21a5f31-5217-47ac-9d5a-9355c45ceefb
select
  id::text,
  owner_id,
  job_type,
  status,
  progress,
  current_step,
  input_data,
  output_data,
  coalesce(error_message, ''),
  usage_json,
  created_at,
  started_at,
  completed_at,
  updated_at
from campaign_jobs
where owner_id = $1::text and id = $2::uuid
limit 1;
`

const QMarkCampaignJobProcessing = `--sql 7ba3fb1d-22c9-4400-a6c7-fda3158e622b
update campaign_jobs
set status = 'processing',
    progress = greatest(progress, $2::int),
    current_step = $3::text,
    started_at = coalesce(started_at, now()),
    updated_at = now()
where id = $1::uuid
  and status in ('pending', 'processing');
`

const QUpdateCampaignJobProgress = `--sql bbbd8411-f1cf-4fa1-86b7-bcb5eda56da3
update campaign_jobs
set progress = greatest(progress, $2::int),
    current_step = $3::text,
    updated_at = now()
where id = $1::uuid
  and status in ('pending', 'processing');
`

const QAppendCampaignJobUsage = `--sql 181f4d2f-d98b-49b8-9a94-f14ca716c900
update campaign_jobs
set usage_json = usage_json || jsonb_build_array($2::jsonb),
    updated_at = now()
where id = $1::uuid
  and status in ('pending', 'processing');
`

// QCompleteCampaignJob finishes the job and stores its artifact in one
// statement; nothing is inserted when the job is already terminal.
const QCompleteCampaignJob = `--sql 6a72acef-12c1-4eee-ac24-3e841b40c134
with done as (
  update campaign_jobs
  set status = 'completed',
      progress = 100,
      current_step = 'Completed',
      output_data = jsonb_build_object('artifactId', $2::uuid::text, 'tokensUsed', $3::int),
      error_message = null,
      completed_at = now(),
      updated_at = now()
  where id = $1::uuid
    and status in ('pending', 'processing')
  returning id, owner_id
)
insert into campaign_artifacts(
  id,
  owner_id,
  job_id,
  campaign_type,
  subject_line,
  preview_text,
  layout_description,
  rendered_markup,
  images_used,
  intent_json,
  copy_json,
  tokens_used,
  cost_estimate,
  model_used,
  generation_time_ms,
  warnings,
  storage_key,
  status,
  created_at
)
select
  $2::uuid,
  done.owner_id,
  done.id,
  $4::text,
  $5::text,
  $6::text,
  $7::jsonb,
  $8::text,
  $9::jsonb,
  $10::jsonb,
  $11::jsonb,
  $3::int,
  $12::numeric,
  $13::text,
  $14::bigint,
  $15::jsonb,
  nullif($16::text, ''),
  'draft',
  now()
from done
returning created_at;
`

const QFailCampaignJob = `--sql 766de30a-349e-4d64-b082-cdeec474b305
update campaign_jobs
set status = 'failed',
    error_message = $2::text,
    output_data = null,
    completed_at = now(),
    updated_at = now()
where id = $1::uuid
  and status in ('pending', 'processing');
`

const QFailStaleCampaignJobs = `--sql 1280f88c-b444-40d1-bd7e-eace2fe1d682
update campaign_jobs
set status = 'failed',
    error_message = $2::text,
    output_data = null,
    completed_at = now(),
    updated_at = now()
where status in ('pending', 'processing')
  and updated_at < now() - make_interval(secs => $1::int);
`
